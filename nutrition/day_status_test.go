package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kobaiko/carbculator/models"
)

func TestClassifyDay(t *testing.T) {
	goal := models.NutritionGoal{Calories: 2000, Protein: 100, WaterMl: 2000}

	tests := []struct {
		name    string
		totals  Totals
		goal    models.NutritionGoal
		status  Status
		goalMet bool
	}{
		{"nothing logged", Totals{WaterMl: 500}, goal, StatusEmpty, false},
		{"no calorie goal", Totals{Calories: 1800, Entries: 2}, models.NutritionGoal{}, StatusNoGoal, false},
		{"under", Totals{Calories: 1500, Protein: 100, WaterMl: 2000, Entries: 3}, goal, StatusUnder, false},
		{"just below the band", Totals{Calories: 1799.99, Protein: 100, WaterMl: 2000, Entries: 3}, goal, StatusUnder, false},
		{"lower edge of the band", Totals{Calories: 1800, Protein: 100, WaterMl: 2000, Entries: 3}, goal, StatusOnTrack, true},
		{"just inside the band", Totals{Calories: 1850, Protein: 95, WaterMl: 2000, Entries: 3}, goal, StatusOnTrack, true},
		{"upper edge of the band", Totals{Calories: 2200, Protein: 100, WaterMl: 2000, Entries: 3}, goal, StatusOnTrack, true},
		{"just above the band", Totals{Calories: 2200.01, Protein: 100, WaterMl: 2000, Entries: 3}, goal, StatusOver, false},
		{"on track", Totals{Calories: 1900, Protein: 95, WaterMl: 2100, Entries: 3}, goal, StatusOnTrack, true},
		{"on track but little water", Totals{Calories: 1900, Protein: 95, WaterMl: 1000, Entries: 3}, goal, StatusOnTrack, false},
		{"on track but little protein", Totals{Calories: 2000, Protein: 60, WaterMl: 2000, Entries: 3}, goal, StatusOnTrack, false},
		{"over", Totals{Calories: 2300, Protein: 120, WaterMl: 2000, Entries: 4}, goal, StatusOver, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := ClassifyDay(tt.totals, tt.goal, 0)
			assert.Equal(t, tt.status, ds.Status)
			assert.Equal(t, tt.goalMet, ds.GoalMet)
		})
	}
}

func TestClassifyDayMetrics(t *testing.T) {
	goal := models.NutritionGoal{Calories: 2000, Carbs: 200, Fat: 70, Sugar: 50, Sodium: 2300}
	ds := ClassifyDay(Totals{Calories: 2100, Carbs: 250, Fat: 68, Sugar: 60, Sodium: 2000, Entries: 2}, goal, 0.10)

	assert.Equal(t, StateMet, ds.Metrics["calories"].State)
	assert.Equal(t, StateExceeded, ds.Metrics["carbs"].State)
	assert.Equal(t, StateMet, ds.Metrics["fat"].State)
	assert.Equal(t, StateExceeded, ds.Metrics["sugar"].State)
	assert.Equal(t, StateWithin, ds.Metrics["sodium"].State)
	assert.Equal(t, StateUnset, ds.Metrics["protein"].State)
	assert.Equal(t, StateUnset, ds.Metrics["water"].State)

	assert.Equal(t, 125.0, ds.Metrics["carbs"].Percent)
	assert.Equal(t, 1.0, ds.Metrics["carbs"].Progress)
	assert.Equal(t, 100.0, ds.CalorieDelta)
	// no protein or water goal means calories alone decide
	assert.True(t, ds.GoalMet)
}

func TestInputDay(t *testing.T) {
	d := day(2024, 5, 1)
	in := Input{
		Entries: []models.FoodEntry{kcalAt(d, 600), kcalAt(d.AddDate(0, 0, 1), 900)},
		Water:   []models.WaterEntry{water(d, 300)},
		Goal:    models.NutritionGoal{Calories: 600},
	}

	ds := in.Day(d)
	assert.Equal(t, "2024-05-01", ds.Date)
	assert.Equal(t, 1, ds.Totals.Entries)
	assert.Equal(t, 600.0, ds.Totals.Calories)
	assert.Equal(t, 300.0, ds.Totals.WaterMl)
	assert.Equal(t, StatusOnTrack, ds.Status)
}
