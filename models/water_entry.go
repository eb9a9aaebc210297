package models

import (
	"time"

	"gorm.io/gorm"
)

type WaterEntry struct {
	gorm.Model
	UserID   uint      `gorm:"index:idx_water_user_logged;not null" json:"user_id"`
	AmountMl float64   `gorm:"not null" json:"amount_ml"`
	LoggedAt time.Time `gorm:"index:idx_water_user_logged;not null" json:"logged_at"`
}
