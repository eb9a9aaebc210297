package models

import (
	"time"

	"gorm.io/gorm"
)

type WeightEntry struct {
	gorm.Model
	UserID     uint      `gorm:"index:idx_weight_user_recorded;not null" json:"user_id"`
	WeightKg   float64   `gorm:"not null" json:"weight_kg"`
	RecordedAt time.Time `gorm:"index:idx_weight_user_recorded;not null" json:"recorded_at"`
	Note       string    `json:"note,omitempty"`
}
