package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

const (
	defaultHistoryDays = 30
	topFoodsDays       = 30
	topFoodsLimit      = 5
)

// DashboardService loads a user's logs and hands them to the nutrition
// package for aggregation.
type DashboardService struct {
	db  *gorm.DB
	log *logrus.Entry
	now func() time.Time
}

func NewDashboardService(db *gorm.DB, log *logrus.Logger) *DashboardService {
	return &DashboardService{db: db, log: log.WithField("component", "dashboard"), now: time.Now}
}

// load fetches entries and water with from <= t < to.
func (s *DashboardService) load(ctx context.Context, u *models.User, from, to time.Time) (nutrition.Input, error) {
	in := nutrition.Input{Location: u.Location(), Tolerance: nutrition.DefaultTolerance}
	g, err := loadGoal(ctx, s.db, u.ID)
	if err != nil {
		return in, err
	}
	in.Goal = g

	db := s.db.WithContext(ctx)
	err = db.Where("user_id = ? AND eaten_at >= ? AND eaten_at < ?", u.ID, from, to).
		Order("eaten_at ASC").Find(&in.Entries).Error
	if err != nil {
		return in, dbErr("load food entries", err)
	}
	err = db.Where("user_id = ? AND logged_at >= ? AND logged_at < ?", u.ID, from, to).
		Order("logged_at ASC").Find(&in.Water).Error
	if err != nil {
		return in, dbErr("load water", err)
	}
	return in, nil
}

type EntryWithNotes struct {
	models.FoodEntry
	Notes []nutrition.Warning `json:"notes"`
}

type TodayView struct {
	Date              string                      `json:"date"`
	Status            nutrition.DayStatus         `json:"status"`
	Goal              models.NutritionGoal        `json:"goal"`
	MacroSplit        nutrition.MacroSplit        `json:"macro_split"`
	RemainingCalories float64                     `json:"remaining_calories"`
	Water             *WaterSummary               `json:"water"`
	Meals             map[string][]EntryWithNotes `json:"meals"`
	Entries           []EntryWithNotes            `json:"entries"`
}

// Today summarizes one local day, today unless date is given.
func (s *DashboardService) Today(ctx context.Context, userID uint, date string) (*TodayView, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	from, to, err := resolveRange(u, date, date, now)
	if err != nil {
		return nil, err
	}
	in, err := s.load(ctx, u, from, to)
	if err != nil {
		return nil, err
	}

	ds := in.Day(from)
	sc := nutrition.NewSafetyContext(u, in.Goal, now)
	v := &TodayView{
		Date:       ds.Date,
		Status:     ds,
		Goal:       in.Goal,
		MacroSplit: nutrition.SplitMacros(ds.Totals),
		Water:      summarizeWater(from, in.Water, in.Goal.WaterMl),
		Meals: map[string][]EntryWithNotes{
			models.MealBreakfast: {}, models.MealLunch: {}, models.MealDinner: {}, models.MealSnack: {},
		},
		Entries: make([]EntryWithNotes, 0, len(in.Entries)),
	}
	if in.Goal.Calories > 0 {
		v.RemainingCalories = nutrition.Round2(math.Max(in.Goal.Calories-ds.Totals.Calories, 0))
	}
	for _, e := range in.Entries {
		en := EntryWithNotes{FoodEntry: e, Notes: nutrition.AssessEntry(e, sc)}
		if en.Notes == nil {
			en.Notes = []nutrition.Warning{}
		}
		v.Entries = append(v.Entries, en)
		mt := e.MealType
		if _, ok := v.Meals[mt]; !ok {
			mt = models.MealSnack
		}
		v.Meals[mt] = append(v.Meals[mt], en)
	}
	return v, nil
}

type ProgressView struct {
	Period  nutrition.Period     `json:"period"`
	From    string               `json:"from"`
	To      string               `json:"to"`
	Goal    models.NutritionGoal `json:"goal"`
	Buckets []nutrition.Bucket   `json:"buckets"`
}

// defaultProgressFrom is the start of the default window per period.
func defaultProgressFrom(p nutrition.Period, today time.Time) time.Time {
	switch p {
	case nutrition.PeriodWeek:
		return nutrition.AddDays(nutrition.WeekStart(today), -7*7)
	case nutrition.PeriodMonth:
		return nutrition.AddMonths(nutrition.MonthStart(today), -5)
	case nutrition.PeriodYear:
		return nutrition.YearStart(today)
	default:
		return nutrition.AddDays(today, -6)
	}
}

// Progress rolls the range up into period buckets. Without dates it uses
// the last 7 days, 8 weeks, 6 months or the current year.
func (s *DashboardService) Progress(ctx context.Context, userID uint, period, fromStr, toStr string) (*ProgressView, error) {
	p, err := nutrition.ParsePeriod(period)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var from, to time.Time
	if fromStr == "" && toStr == "" {
		today := nutrition.DayStart(now, u.Location())
		from, to = defaultProgressFrom(p, today), nutrition.AddDays(today, 1)
	} else if from, to, err = resolveRange(u, fromStr, toStr, now); err != nil {
		return nil, err
	}

	in, err := s.load(ctx, u, from, to)
	if err != nil {
		return nil, err
	}
	last := nutrition.AddDays(to, -1)
	buckets, err := nutrition.Rollup(in, from, last, p)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	return &ProgressView{
		Period:  p,
		From:    from.Format(nutrition.DateLayout),
		To:      last.Format(nutrition.DateLayout),
		Goal:    in.Goal,
		Buckets: buckets,
	}, nil
}

// History classifies each day in range (default the last 30 days) and
// writes completed logged days through to daily_summaries.
func (s *DashboardService) History(ctx context.Context, userID uint, fromStr, toStr string) (*nutrition.History, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var from, to time.Time
	if fromStr == "" && toStr == "" {
		today := nutrition.DayStart(now, u.Location())
		from, to = nutrition.AddDays(today, 1-defaultHistoryDays), nutrition.AddDays(today, 1)
	} else if from, to, err = resolveRange(u, fromStr, toStr, now); err != nil {
		return nil, err
	}

	in, err := s.load(ctx, u, from, to)
	if err != nil {
		return nil, err
	}
	h, err := nutrition.BuildHistory(in, from, nutrition.AddDays(to, -1), now)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	s.writeThrough(ctx, u, in, h.Days, nutrition.DayKey(now, u.Location()))
	return h, nil
}

// Calendar is History over one calendar month. A zero year or month means
// the current one in the user's timezone.
func (s *DashboardService) Calendar(ctx context.Context, userID uint, year, month int) (*nutrition.History, error) {
	if month < 0 || month > 12 {
		return nil, invalidf("month must be between 1 and 12")
	}
	if year != 0 && (year < 2000 || year > 2100) {
		return nil, invalidf("year is out of range")
	}
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	loc := u.Location()
	now := s.now()
	local := now.In(loc)
	if year == 0 {
		year = local.Year()
	}
	if month == 0 {
		month = int(local.Month())
	}
	first := nutrition.MonthStart(time.Date(year, time.Month(month), 15, 12, 0, 0, 0, loc))
	in, err := s.load(ctx, u, first, nutrition.AddMonths(first, 1))
	if err != nil {
		return nil, err
	}
	h, err := nutrition.Calendar(in, year, time.Month(month), now)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	s.writeThrough(ctx, u, in, h.Days, nutrition.DayKey(now, loc))
	return h, nil
}

type TrendsView struct {
	WeekOverWeek nutrition.Trend       `json:"week_over_week"`
	MacroSplit   nutrition.MacroSplit  `json:"macro_split"`
	TopFoods     []nutrition.FoodCount `json:"top_foods"`
}

// Trends compares this week with the last one, splits macros over the
// last 7 days and ranks the foods of the last 30 days.
func (s *DashboardService) Trends(ctx context.Context, userID uint) (*TrendsView, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	today := nutrition.DayStart(now, u.Location())
	from := nutrition.AddDays(nutrition.WeekStart(today), -7)
	if f := nutrition.AddDays(today, 1-topFoodsDays); f.Before(from) {
		from = f
	}
	in, err := s.load(ctx, u, from, nutrition.AddDays(today, 1))
	if err != nil {
		return nil, err
	}

	wow, err := nutrition.WeekOverWeek(in, today)
	if err != nil {
		return nil, err
	}
	weekFrom := nutrition.AddDays(today, -6)
	var week []models.FoodEntry
	for _, e := range in.Entries {
		if !e.EatenAt.Before(weekFrom) {
			week = append(week, e)
		}
	}
	return &TrendsView{
		WeekOverWeek: wow,
		MacroSplit:   nutrition.SplitMacros(nutrition.SumEntries(week)),
		TopFoods:     nutrition.TopFoods(in.Entries, topFoodsLimit),
	}, nil
}

// Snapshot stores the summary of one local day of u.
func (s *DashboardService) Snapshot(ctx context.Context, u *models.User, day time.Time) (*models.DailySummary, error) {
	start, end := nutrition.DayRange(day, u.Location())
	in, err := s.load(ctx, u, start, end)
	if err != nil {
		return nil, err
	}
	row := summaryRow(u.ID, start, in.Goal, in.Day(start))
	if err := s.upsertSummaries(ctx, []models.DailySummary{row}); err != nil {
		return nil, err
	}
	return &row, nil
}

func summaryRow(userID uint, day time.Time, g models.NutritionGoal, ds nutrition.DayStatus) models.DailySummary {
	t := ds.Totals
	return models.DailySummary{
		UserID:       userID,
		Date:         time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Calories:     t.Calories,
		Protein:      t.Protein,
		Carbs:        t.Carbs,
		Fat:          t.Fat,
		Fiber:        t.Fiber,
		Sugar:        t.Sugar,
		Sodium:       t.Sodium,
		WaterMl:      t.WaterMl,
		Entries:      t.Entries,
		GoalCalories: g.Calories,
		GoalWaterMl:  g.WaterMl,
		Status:       string(ds.Status),
		GoalMet:      ds.GoalMet,
	}
}

// writeThrough upserts summaries for logged days before today. Failures
// are logged; the read still succeeds.
func (s *DashboardService) writeThrough(ctx context.Context, u *models.User, in nutrition.Input, days []nutrition.DayStatus, todayKey string) {
	var rows []models.DailySummary
	for _, ds := range days {
		if ds.Totals.Entries == 0 || ds.Date >= todayKey {
			continue
		}
		day, err := time.Parse(nutrition.DateLayout, ds.Date)
		if err != nil {
			continue
		}
		rows = append(rows, summaryRow(u.ID, day, in.Goal, ds))
	}
	if len(rows) == 0 {
		return
	}
	if err := s.upsertSummaries(ctx, rows); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("daily summary write-through failed")
	}
}

func (s *DashboardService) upsertSummaries(ctx context.Context, rows []models.DailySummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"calories", "protein", "carbs", "fat", "fiber", "sugar", "sodium",
			"water_ml", "entries", "goal_calories", "goal_water_ml", "status", "goal_met", "updated_at",
		}),
	}).Create(&rows).Error
	return dbErr("upsert daily summary", err)
}
