package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"

	SourceAI     = "ai"
	SourceManual = "manual"
)

// FoodEntry is one logged food or meal with its nutrition snapshot.
type FoodEntry struct {
	gorm.Model
	UserID      uint      `gorm:"index:idx_food_user_eaten;not null" json:"user_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	MealType    string    `gorm:"size:16" json:"meal_type"`
	EatenAt     time.Time `gorm:"index:idx_food_user_eaten;not null" json:"eaten_at"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"` // mg

	ImageURL   string `json:"image_url,omitempty"`
	Source     string `gorm:"size:8;default:manual" json:"source"`
	Confidence string `gorm:"size:8" json:"confidence,omitempty"`
	Warnings   string `gorm:"type:text" json:"warnings,omitempty"` // "; " separated
}
