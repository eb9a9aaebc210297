package services

import (
	"context"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
	"github.com/Kobaiko/carbculator/utils"
)

type WeightService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewWeightService(db *gorm.DB) *WeightService {
	return &WeightService{db: db, now: time.Now}
}

type WeightPoint struct {
	Date      string  `json:"date"`
	WeightKg  float64 `json:"weight_kg"`
	MovingAvg float64 `json:"moving_avg"`
}

type WeightSummary struct {
	Entries        int           `json:"entries"`
	LatestKg       float64       `json:"latest_kg"`
	StartingKg     float64       `json:"starting_kg"`
	ChangeKg       float64       `json:"change_kg"`
	MinKg          float64       `json:"min_kg"`
	MaxKg          float64       `json:"max_kg"`
	BMI            float64       `json:"bmi,omitempty"`
	BMICategory    string        `json:"bmi_category,omitempty"`
	HealthyMinKg   float64       `json:"healthy_min_kg,omitempty"`
	HealthyMaxKg   float64       `json:"healthy_max_kg,omitempty"`
	TargetKg       float64       `json:"target_kg,omitempty"`
	ToGoKg         float64       `json:"to_go_kg,omitempty"`
	TargetProgress float64       `json:"target_progress"`
	Series         []WeightPoint `json:"series"`
}

// weightTrendWindow is the number of entries in the smoothing average.
const weightTrendWindow = 7

func validWeight(kg float64) bool { return kg > 20 && kg <= 400 && !math.IsNaN(kg) }

func (s *WeightService) Add(ctx context.Context, userID uint, weightKg float64, recordedAt *time.Time, note string) (*models.WeightEntry, error) {
	if !validWeight(weightKg) {
		return nil, invalidf("weight_kg must be between 20 and 400")
	}
	at := s.now()
	if recordedAt != nil && !recordedAt.IsZero() {
		at = *recordedAt
	}
	w := &models.WeightEntry{UserID: userID, WeightKg: weightKg, RecordedAt: at.UTC(), Note: strings.TrimSpace(note)}
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, dbErr("add weight", err)
	}
	return w, nil
}

func (s *WeightService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.WeightEntry{})
	if res.Error != nil {
		return dbErr("delete weight", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns entries in the inclusive local date range; both empty means all.
func (s *WeightService) List(ctx context.Context, userID uint, fromStr, toStr string) ([]models.WeightEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if fromStr != "" || toStr != "" {
		u, err := loadUser(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		from, to, err := resolveRange(u, fromStr, toStr, s.now())
		if err != nil {
			return nil, err
		}
		q = q.Where("recorded_at >= ? AND recorded_at < ?", from, to)
	}

	var out []models.WeightEntry
	if err := q.Order("recorded_at ASC").Find(&out).Error; err != nil {
		return nil, dbErr("list weight", err)
	}
	return out, nil
}

func (s *WeightService) Summary(ctx context.Context, userID uint) (*WeightSummary, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.List(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}
	return SummarizeWeight(entries, u), nil
}

// SummarizeWeight expects entries oldest first.
func SummarizeWeight(entries []models.WeightEntry, u *models.User) *WeightSummary {
	sum := &WeightSummary{Entries: len(entries), TargetKg: u.TargetWeight, Series: []WeightPoint{}}
	if u.HeightCm > 0 {
		sum.HealthyMinKg, sum.HealthyMaxKg = utils.HealthyWeightRange(u.HeightCm)
	}
	if len(entries) == 0 {
		return sum
	}

	values := make([]float64, len(entries))
	sum.MinKg, sum.MaxKg = entries[0].WeightKg, entries[0].WeightKg
	for i, e := range entries {
		values[i] = e.WeightKg
		sum.MinKg = math.Min(sum.MinKg, e.WeightKg)
		sum.MaxKg = math.Max(sum.MaxKg, e.WeightKg)
	}
	avg := nutrition.MovingAverage(values, weightTrendWindow)
	loc := u.Location()
	for i, e := range entries {
		sum.Series = append(sum.Series, WeightPoint{
			Date:      nutrition.DayKey(e.RecordedAt, loc),
			WeightKg:  e.WeightKg,
			MovingAvg: avg[i],
		})
	}

	sum.StartingKg = entries[0].WeightKg
	sum.LatestKg = entries[len(entries)-1].WeightKg
	sum.ChangeKg = nutrition.Round2(sum.LatestKg - sum.StartingKg)

	if bmi, err := utils.CalculateBMI(u.HeightCm, sum.LatestKg); err == nil {
		sum.BMI = bmi
		sum.BMICategory = utils.BMICategory(bmi)
	}

	if u.TargetWeight > 0 {
		sum.ToGoKg = nutrition.Round2(math.Abs(sum.LatestKg - u.TargetWeight))
		if span := sum.StartingKg - u.TargetWeight; span != 0 {
			p := (sum.StartingKg - sum.LatestKg) / span * 100
			sum.TargetProgress = nutrition.Round2(math.Min(math.Max(p, 0), 100))
		} else {
			sum.TargetProgress = 100
		}
	}
	return sum
}
