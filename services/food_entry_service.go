package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

type alertEmitter interface {
	EmitOncePerDay(ctx context.Context, userID uint, loc *time.Location, now time.Time, typ, code, message string) (bool, error)
}

type FoodEntryService struct {
	db     *gorm.DB
	alerts alertEmitter
	rt     Broadcaster
	log    *logrus.Entry
	now    func() time.Time
}

// NewFoodEntryService wires entry storage. alerts and rt may be nil.
func NewFoodEntryService(db *gorm.DB, alerts alertEmitter, rt Broadcaster, log *logrus.Logger) *FoodEntryService {
	return &FoodEntryService{
		db:     db,
		alerts: alerts,
		rt:     rt,
		log:    log.WithField("component", "food_entries"),
		now:    time.Now,
	}
}

type FoodEntryInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	MealType    string     `json:"meal_type"`
	EatenAt     *time.Time `json:"eaten_at"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	Fiber       float64    `json:"fiber"`
	Sugar       float64    `json:"sugar"`
	Sodium      float64    `json:"sodium"`
	ImageURL    string     `json:"image_url"`
	Source      string     `json:"source"`
	Confidence  string     `json:"confidence"`
}

// FoodEntryPatch is a partial update; nil fields are left alone.
type FoodEntryPatch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	MealType    *string    `json:"meal_type"`
	EatenAt     *time.Time `json:"eaten_at"`
	Calories    *float64   `json:"calories"`
	Protein     *float64   `json:"protein"`
	Carbs       *float64   `json:"carbs"`
	Fat         *float64   `json:"fat"`
	Fiber       *float64   `json:"fiber"`
	Sugar       *float64   `json:"sugar"`
	Sodium      *float64   `json:"sodium"`
}

var mealTypes = map[string]bool{
	models.MealBreakfast: true,
	models.MealLunch:     true,
	models.MealDinner:    true,
	models.MealSnack:     true,
}

// GuessMealType picks a meal type from the local time of day.
func GuessMealType(t time.Time) string {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= 5*60 && m < 10*60+30:
		return models.MealBreakfast
	case m >= 11*60+30 && m < 15*60:
		return models.MealLunch
	case m >= 17*60+30 && m < 22*60:
		return models.MealDinner
	default:
		return models.MealSnack
	}
}

func validateEntry(e *models.FoodEntry) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return invalidf("name is required")
	}
	if len(e.Name) > 200 {
		return invalidf("name is too long")
	}
	if !mealTypes[e.MealType] {
		return invalidf("meal_type must be breakfast, lunch, dinner or snack")
	}
	for field, v := range map[string]float64{
		"calories": e.Calories, "protein": e.Protein, "carbs": e.Carbs, "fat": e.Fat,
		"fiber": e.Fiber, "sugar": e.Sugar, "sodium": e.Sodium,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidf("%s must be a non-negative number", field)
		}
	}
	if e.Source != models.SourceAI && e.Source != models.SourceManual {
		return invalidf("source must be ai or manual")
	}
	return nil
}

func (in FoodEntryInput) entry(userID uint, loc *time.Location, now time.Time) models.FoodEntry {
	eatenAt := now
	if in.EatenAt != nil && !in.EatenAt.IsZero() {
		eatenAt = *in.EatenAt
	}
	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if mealType == "" {
		mealType = GuessMealType(eatenAt.In(loc))
	}
	source := in.Source
	if source == "" {
		source = models.SourceManual
	}
	return models.FoodEntry{
		UserID:      userID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		MealType:    mealType,
		EatenAt:     eatenAt.UTC(),
		Calories:    in.Calories,
		Protein:     in.Protein,
		Carbs:       in.Carbs,
		Fat:         in.Fat,
		Fiber:       in.Fiber,
		Sugar:       in.Sugar,
		Sodium:      in.Sodium,
		ImageURL:    in.ImageURL,
		Source:      source,
		Confidence:  in.Confidence,
	}
}

// Preview builds the entry Create would store, in the user's timezone, and
// runs the dietary rules on it without saving.
func (s *FoodEntryService) Preview(ctx context.Context, userID uint, in FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	g, err := loadGoal(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	e := in.entry(userID, u.Location(), now)
	if err := validateEntry(&e); err != nil {
		return nil, nil, err
	}
	return &e, nutrition.AssessEntry(e, nutrition.NewSafetyContext(u, g, now)), nil
}

func (s *FoodEntryService) Create(ctx context.Context, userID uint, in FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	g, err := loadGoal(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	e := in.entry(userID, u.Location(), now)
	if err := validateEntry(&e); err != nil {
		return nil, nil, err
	}
	ws := nutrition.AssessEntry(e, nutrition.NewSafetyContext(u, g, now))
	e.Warnings = nutrition.JoinMessages(ws)

	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, nil, dbErr("create food entry", err)
	}
	s.afterChange(ctx, u, g, e.EatenAt)
	return &e, ws, nil
}

func (s *FoodEntryService) Get(ctx context.Context, userID, id uint) (*models.FoodEntry, error) {
	var e models.FoodEntry
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, dbErr("get food entry", err)
	}
	return &e, nil
}

// List returns entries with from <= eaten_at < to, oldest first.
func (s *FoodEntryService) List(ctx context.Context, userID uint, from, to time.Time) ([]models.FoodEntry, error) {
	var out []models.FoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND eaten_at >= ? AND eaten_at < ?", userID, from, to).
		Order("eaten_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, dbErr("list food entries", err)
	}
	return out, nil
}

// ListDates lists entries for inclusive local dates (YYYY-MM-DD, default today).
func (s *FoodEntryService) ListDates(ctx context.Context, userID uint, fromStr, toStr string) ([]models.FoodEntry, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	from, to, err := resolveRange(u, fromStr, toStr, s.now())
	if err != nil {
		return nil, err
	}
	return s.List(ctx, userID, from, to)
}

func (s *FoodEntryService) Update(ctx context.Context, userID, id uint, p FoodEntryPatch) (*models.FoodEntry, []nutrition.Warning, error) {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	g, err := loadGoal(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.MealType != nil {
		e.MealType = strings.ToLower(strings.TrimSpace(*p.MealType))
	}
	if p.EatenAt != nil && !p.EatenAt.IsZero() {
		e.EatenAt = p.EatenAt.UTC()
	}
	setIf(&e.Calories, p.Calories)
	setIf(&e.Protein, p.Protein)
	setIf(&e.Carbs, p.Carbs)
	setIf(&e.Fat, p.Fat)
	setIf(&e.Fiber, p.Fiber)
	setIf(&e.Sugar, p.Sugar)
	setIf(&e.Sodium, p.Sodium)
	if err := validateEntry(e); err != nil {
		return nil, nil, err
	}

	ws := nutrition.AssessEntry(*e, nutrition.NewSafetyContext(u, g, s.now()))
	e.Warnings = nutrition.JoinMessages(ws)
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return nil, nil, dbErr("update food entry", err)
	}
	s.afterChange(ctx, u, g, e.EatenAt)
	return e, ws, nil
}

func (s *FoodEntryService) Delete(ctx context.Context, userID, id uint) error {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(e).Error; err != nil {
		return dbErr("delete food entry", err)
	}
	if s.rt != nil {
		s.rt.Broadcast(userID, "entries.changed", map[string]any{
			"date":    nutrition.DayKey(e.EatenAt, u.Location()),
			"deleted": e.ID,
		})
	}
	return nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// afterChange notifies open clients and raises the once-a-day over-goal
// alert when today's calories go over.
func (s *FoodEntryService) afterChange(ctx context.Context, u *models.User, g models.NutritionGoal, eatenAt time.Time) {
	loc := u.Location()
	day := nutrition.DayKey(eatenAt, loc)
	if s.rt != nil {
		s.rt.Broadcast(u.ID, "entries.changed", map[string]any{"date": day})
	}

	now := s.now()
	if s.alerts == nil || g.Calories <= 0 || day != nutrition.DayKey(now, loc) {
		return
	}
	start, end := nutrition.DayRange(now, loc)
	entries, err := s.List(ctx, u.ID, start, end)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("daily total check failed")
		return
	}
	ds := nutrition.ClassifyDay(nutrition.SumEntries(entries), g, 0)
	if ds.Status != nutrition.StatusOver {
		return
	}
	msg := fmt.Sprintf("You're %.0f kcal over today's %.0f kcal goal.", ds.CalorieDelta, g.Calories)
	if _, err := s.alerts.EmitOncePerDay(ctx, u.ID, loc, now, AlertWarning, "calories_over", msg); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("over-goal alert failed")
	}
}
