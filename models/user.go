package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	FullName      string     `json:"full_name"`
	Sex           string     `gorm:"size:8" json:"sex"` // "male" | "female"
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	HeightCm      float64    `json:"height_cm"`
	ActivityLevel string     `gorm:"size:16" json:"activity_level"`
	GoalType      string     `gorm:"size:16" json:"goal_type"` // "lose" | "maintain" | "gain"
	TargetWeight  float64    `json:"target_weight_kg"`
	Timezone      string     `gorm:"size:64;default:UTC" json:"timezone"`
	AvatarURL     string     `json:"avatar_url"`
	Onboarded     bool       `json:"onboarded"`

	ResetCode     string    `gorm:"size:16" json:"-"`
	ResetCodeExp  time.Time `json:"-"`
	ResetAttempts int       `gorm:"not null;default:0" json:"-"`
}

// Location resolves the user's timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	if u == nil || u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AgeAt returns the age in whole years at t, 0 when the birth date is unknown.
func (u *User) AgeAt(t time.Time) int {
	if u == nil || u.BirthDate == nil || u.BirthDate.IsZero() {
		return 0
	}
	b := *u.BirthDate
	age := t.Year() - b.Year()
	if t.Month() < b.Month() || (t.Month() == b.Month() && t.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
