package models

import (
	"gorm.io/gorm"
)

// NutritionGoal holds each user's daily targets. Zero means "not set".
type NutritionGoal struct {
	gorm.Model
	UserID   uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Calories float64 `json:"calories"` // e.g. 2200 kcal
	Protein  float64 `json:"protein"`  // e.g. 140 g
	Carbs    float64 `json:"carbs"`    // e.g. 220 g
	Fat      float64 `json:"fat"`      // e.g. 70 g
	Fiber    float64 `json:"fiber"`    // e.g. 30 g
	Sugar    float64 `json:"sugar"`    // upper limit, e.g. 50 g
	Sodium   float64 `json:"sodium"`   // upper limit, e.g. 2300 mg
	WaterMl  float64 `json:"water_ml"` // e.g. 2500 ml
}
