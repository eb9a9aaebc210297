package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

func loadUser(ctx context.Context, db *gorm.DB, userID uint) (*models.User, error) {
	var u models.User
	if err := db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, dbErr("load user", err)
	}
	return &u, nil
}

// loadGoal returns the user's goal, or an unsaved zero goal when none is set.
func loadGoal(ctx context.Context, db *gorm.DB, userID uint) (models.NutritionGoal, error) {
	var g models.NutritionGoal
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NutritionGoal{UserID: userID}, nil
	}
	if err != nil {
		return g, dbErr("load goal", err)
	}
	return g, nil
}

// resolveRange parses inclusive local dates in the user's timezone and
// returns [from, to+1 day). Empty strings default to today.
func resolveRange(u *models.User, fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	loc := u.Location()
	today := nutrition.DayStart(now, loc)

	from, to := today, today
	var err error
	if fromStr != "" {
		if from, err = nutrition.ParseDate(fromStr, loc); err != nil {
			return time.Time{}, time.Time{}, invalidf("%v", err)
		}
	}
	if toStr != "" {
		if to, err = nutrition.ParseDate(toStr, loc); err != nil {
			return time.Time{}, time.Time{}, invalidf("%v", err)
		}
	} else if fromStr != "" {
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalidf("%v", nutrition.ErrInvalidRange)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, invalidf("range is limited to %d days", maxRangeDays)
	}
	return from, nutrition.AddDays(to, 1), nil
}

const maxRangeDays = 400
