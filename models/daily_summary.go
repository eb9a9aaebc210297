package models

import (
	"time"

	"gorm.io/gorm"
)

// DailySummary is a per-day snapshot of totals against the goal that was
// active that day. Date is local midnight in the user's timezone, stored as
// a calendar date.
type DailySummary struct {
	gorm.Model
	UserID uint      `gorm:"uniqueIndex:idx_summary_user_date;not null" json:"user_id"`
	Date   time.Time `gorm:"type:date;uniqueIndex:idx_summary_user_date;not null" json:"date"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	WaterMl  float64 `json:"water_ml"`
	Entries  int     `json:"entries"`

	GoalCalories float64 `json:"goal_calories"`
	GoalWaterMl  float64 `json:"goal_water_ml"`
	Status       string  `gorm:"size:16" json:"status"`
	GoalMet      bool    `json:"goal_met"`
}
