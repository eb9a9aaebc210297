package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

const maxWaterMl = 5000

type WaterService struct {
	db  *gorm.DB
	rt  Broadcaster
	now func() time.Time
}

func NewWaterService(db *gorm.DB, rt Broadcaster) *WaterService {
	return &WaterService{db: db, rt: rt, now: time.Now}
}

type WaterSummary struct {
	Date        string              `json:"date"`
	TotalMl     float64             `json:"total_ml"`
	GoalMl      float64             `json:"goal_ml"`
	Percent     float64             `json:"percent"`
	Progress    float64             `json:"progress"`
	RemainingMl float64             `json:"remaining_ml"`
	Entries     []models.WaterEntry `json:"entries"`
}

func (s *WaterService) Add(ctx context.Context, userID uint, amountMl float64, loggedAt *time.Time) (*models.WaterEntry, error) {
	if amountMl <= 0 || amountMl > maxWaterMl || math.IsNaN(amountMl) {
		return nil, invalidf("amount_ml must be between 1 and %d", maxWaterMl)
	}
	at := s.now()
	if loggedAt != nil && !loggedAt.IsZero() {
		at = *loggedAt
	}
	w := &models.WaterEntry{UserID: userID, AmountMl: amountMl, LoggedAt: at.UTC()}
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, dbErr("add water", err)
	}
	if s.rt != nil {
		s.rt.Broadcast(userID, "water.changed", map[string]any{"id": w.ID})
	}
	return w, nil
}

func (s *WaterService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.WaterEntry{})
	if res.Error != nil {
		return dbErr("delete water", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if s.rt != nil {
		s.rt.Broadcast(userID, "water.changed", map[string]any{"deleted": id})
	}
	return nil
}

// List returns water entries with from <= logged_at < to.
func (s *WaterService) List(ctx context.Context, userID uint, from, to time.Time) ([]models.WaterEntry, error) {
	var out []models.WaterEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, from, to).
		Order("logged_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, dbErr("list water", err)
	}
	return out, nil
}

func (s *WaterService) ListDates(ctx context.Context, userID uint, fromStr, toStr string) ([]models.WaterEntry, error) {
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

// Summary totals one local day (default today) against the water goal.
func (s *WaterService) Summary(ctx context.Context, userID uint, date string) (*WaterSummary, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	g, err := loadGoal(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	from, to, err := resolveRange(u, date, date, s.now())
	if err != nil {
		return nil, err
	}
	entries, err := s.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return summarizeWater(from, entries, g.WaterMl), nil
}

func summarizeWater(day time.Time, entries []models.WaterEntry, goalMl float64) *WaterSummary {
	total := nutrition.SumWater(entries)
	if entries == nil {
		entries = []models.WaterEntry{}
	}
	return &WaterSummary{
		Date:        day.Format(nutrition.DateLayout),
		TotalMl:     nutrition.Round2(total),
		GoalMl:      goalMl,
		Percent:     nutrition.Percent(total, goalMl),
		Progress:    nutrition.Progress(total, goalMl),
		RemainingMl: nutrition.Round2(math.Max(goalMl-total, 0)),
		Entries:     entries,
	}
}
