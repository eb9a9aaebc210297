package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
	"github.com/Kobaiko/carbculator/utils"
)

type ProfileService struct {
	db     *gorm.DB
	images ImageUploader
	now    func() time.Time
}

// NewProfileService wires profile storage; images may be nil, in which
// case avatar uploads are refused.
func NewProfileService(db *gorm.DB, images ImageUploader) *ProfileService {
	return &ProfileService{db: db, images: images, now: time.Now}
}

type Profile struct {
	ID            uint    `json:"id"`
	Email         string  `json:"email"`
	FullName      string  `json:"full_name"`
	Sex           string  `json:"sex"`
	BirthDate     string  `json:"birth_date,omitempty"`
	Age           int     `json:"age,omitempty"`
	HeightCm      float64 `json:"height_cm"`
	ActivityLevel string  `json:"activity_level"`
	GoalType      string  `json:"goal_type"`
	TargetWeight  float64 `json:"target_weight_kg"`
	Timezone      string  `json:"timezone"`
	AvatarURL     string  `json:"avatar_url"`
	Onboarded     bool    `json:"onboarded"`
}

func toProfile(u *models.User, now time.Time) *Profile {
	p := &Profile{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Sex:           u.Sex,
		Age:           u.AgeAt(now),
		HeightCm:      u.HeightCm,
		ActivityLevel: u.ActivityLevel,
		GoalType:      u.GoalType,
		TargetWeight:  u.TargetWeight,
		Timezone:      u.Timezone,
		AvatarURL:     u.AvatarURL,
		Onboarded:     u.Onboarded,
	}
	if u.BirthDate != nil {
		p.BirthDate = u.BirthDate.Format(nutrition.DateLayout)
	}
	return p
}

type ProfilePatch struct {
	FullName      *string  `json:"full_name"`
	Sex           *string  `json:"sex"`
	BirthDate     *string  `json:"birth_date"`
	HeightCm      *float64 `json:"height_cm"`
	ActivityLevel *string  `json:"activity_level"`
	GoalType      *string  `json:"goal_type"`
	TargetWeight  *float64 `json:"target_weight_kg"`
	Timezone      *string  `json:"timezone"`
	Avatar        *string  `json:"avatar"` // data URI
}

type OnboardingInput struct {
	FullName      string  `json:"full_name"`
	Sex           string  `json:"sex" binding:"required"`
	BirthDate     string  `json:"birth_date" binding:"required"`
	HeightCm      float64 `json:"height_cm" binding:"required"`
	WeightKg      float64 `json:"weight_kg" binding:"required"`
	ActivityLevel string  `json:"activity_level" binding:"required"`
	GoalType      string  `json:"goal_type" binding:"required"`
	TargetWeight  float64 `json:"target_weight_kg"`
	Timezone      string  `json:"timezone"`
}

type OnboardingResult struct {
	Profile *Profile             `json:"profile"`
	Plan    *nutrition.GoalPlan  `json:"plan"`
	Goal    models.NutritionGoal `json:"goal"`
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*Profile, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(u, s.now()), nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, p ProfilePatch) (*Profile, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Sex != nil {
		sex := strings.ToLower(strings.TrimSpace(*p.Sex))
		if sex != "male" && sex != "female" {
			return nil, invalidf("sex must be male or female")
		}
		u.Sex = sex
	}
	if p.BirthDate != nil {
		bd, err := parseBirthDate(*p.BirthDate, s.now())
		if err != nil {
			return nil, err
		}
		u.BirthDate = bd
	}
	if p.HeightCm != nil {
		if *p.HeightCm < 100 || *p.HeightCm > 250 || math.IsNaN(*p.HeightCm) {
			return nil, invalidf("height_cm must be between 100 and 250")
		}
		u.HeightCm = *p.HeightCm
	}
	if p.ActivityLevel != nil {
		u.ActivityLevel = strings.ToLower(strings.TrimSpace(*p.ActivityLevel))
	}
	if p.GoalType != nil {
		u.GoalType = strings.ToLower(strings.TrimSpace(*p.GoalType))
	}
	if p.TargetWeight != nil {
		if *p.TargetWeight != 0 && !validWeight(*p.TargetWeight) {
			return nil, invalidf("target_weight_kg must be between 20 and 400")
		}
		u.TargetWeight = *p.TargetWeight
	}
	if p.Timezone != nil {
		tz, err := validTimezone(*p.Timezone)
		if err != nil {
			return nil, err
		}
		u.Timezone = tz
	}
	if p.Avatar != nil && *p.Avatar != "" {
		url, err := s.uploadAvatar(ctx, u.ID, *p.Avatar)
		if err != nil {
			return nil, err
		}
		u.AvatarURL = url
	}

	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, dbErr("update profile", err)
	}
	return toProfile(u, s.now()), nil
}

func (s *ProfileService) uploadAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("avatar upload: image storage not configured")
	}
	raw, _, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return "", invalidf("%v", err)
	}
	contentType, err := SniffImage(raw)
	if err != nil {
		return "", err
	}
	return s.images.Upload(ctx, fmt.Sprintf("avatars/%d", userID), raw, contentType)
}

// Onboard stores the body profile, records the starting weight and applies
// calculated goals in one transaction.
func (s *ProfileService) Onboard(ctx context.Context, userID uint, in OnboardingInput) (*OnboardingResult, error) {
	now := s.now()
	bd, err := parseBirthDate(in.BirthDate, now)
	if err != nil {
		return nil, err
	}
	tz := "UTC"
	if in.Timezone != "" {
		if tz, err = validTimezone(in.Timezone); err != nil {
			return nil, err
		}
	}
	if in.TargetWeight != 0 && !validWeight(in.TargetWeight) {
		return nil, invalidf("target_weight_kg must be between 20 and 400")
	}

	subject := models.User{BirthDate: bd}
	body := nutrition.BodyProfile{
		Sex:           strings.ToLower(strings.TrimSpace(in.Sex)),
		Age:           subject.AgeAt(now),
		HeightCm:      in.HeightCm,
		WeightKg:      in.WeightKg,
		ActivityLevel: strings.ToLower(strings.TrimSpace(in.ActivityLevel)),
		GoalType:      strings.ToLower(strings.TrimSpace(in.GoalType)),
	}
	plan, err := nutrition.CalculateGoals(body)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	res := &OnboardingResult{Plan: plan, Goal: plan.Goal(userID)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.FullName); name != "" {
			u.FullName = name
		}
		u.Sex = body.Sex
		u.BirthDate = bd
		u.HeightCm = body.HeightCm
		u.ActivityLevel = body.ActivityLevel
		u.GoalType = body.GoalType
		u.TargetWeight = in.TargetWeight
		u.Timezone = tz
		u.Onboarded = true
		if err := tx.Save(u).Error; err != nil {
			return dbErr("save profile", err)
		}

		w := &models.WeightEntry{UserID: userID, WeightKg: body.WeightKg, RecordedAt: now.UTC(), Note: "onboarding"}
		if err := tx.Create(w).Error; err != nil {
			return dbErr("record starting weight", err)
		}
		if err := saveGoal(ctx, tx, &res.Goal); err != nil {
			return err
		}
		res.Profile = toProfile(u, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func parseBirthDate(s string, now time.Time) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	bd, err := time.Parse(nutrition.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, invalidf("birth_date must be YYYY-MM-DD")
	}
	if bd.After(now) {
		return nil, invalidf("birth_date is in the future")
	}
	return &bd, nil
}

func validTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", invalidf("unknown timezone %q", tz)
	}
	return tz, nil
}
