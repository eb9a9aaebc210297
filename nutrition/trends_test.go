package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kobaiko/carbculator/models"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		cur, prev float64
		delta     float64
		dir       Direction
	}{
		{110, 100, 10, DirectionUp},
		{80, 100, -20, DirectionDown},
		{99.5, 100, -0.5, DirectionFlat},
		{0, 0, 0, DirectionFlat},
		{5, 0, 100, DirectionUp},
	}
	for _, tt := range tests {
		c := Compare(tt.cur, tt.prev)
		assert.Equal(t, tt.delta, c.DeltaPct, "%v vs %v", tt.cur, tt.prev)
		assert.Equal(t, tt.dir, c.Direction, "%v vs %v", tt.cur, tt.prev)
	}
}

func TestWeekOverWeek(t *testing.T) {
	in := Input{
		Entries: []models.FoodEntry{
			kcalAt(day(2024, 1, 2), 2000),
			kcalAt(day(2024, 1, 9), 2100),
		},
		Goal: models.NutritionGoal{Calories: 2000},
	}

	tr, err := WeekOverWeek(in, day(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", tr.CurrentFrom)
	assert.Equal(t, "2024-01-10", tr.CurrentTo)
	assert.Equal(t, "2024-01-01", tr.PreviousFrom)
	assert.Equal(t, "2024-01-07", tr.PreviousTo)
	assert.Equal(t, 1, tr.CurrentDaysLogged)
	assert.Equal(t, 1, tr.PreviousDaysLogged)

	cal := tr.Metrics["calories"]
	assert.Equal(t, 5.0, cal.DeltaPct)
	assert.Equal(t, DirectionUp, cal.Direction)
	assert.Equal(t, DirectionFlat, tr.Adherence.Direction)
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, MovingAverage([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{3, 3, 4}, MovingAverage([]float64{3, 3, 6}, 3))
	assert.Equal(t, []float64{7, 8}, MovingAverage([]float64{7, 8}, 1))
}

func TestTopFoods(t *testing.T) {
	d := day(2024, 1, 1)
	entries := []models.FoodEntry{
		food("Oatmeal", d, 300, 10, 45, 5),
		food("Apple", d, 95, 0, 25, 0),
		food("Salad", d, 100, 3, 10, 5),
		food(" oatmeal ", d, 300, 10, 45, 5),
		food("Salad", d, 100, 3, 10, 5),
		food("", d, 50, 0, 0, 0),
	}

	top := TopFoods(entries, 2)
	require.Len(t, top, 2)
	assert.Equal(t, FoodCount{Name: "Oatmeal", Count: 2, Calories: 600}, top[0])
	assert.Equal(t, FoodCount{Name: "Salad", Count: 2, Calories: 200}, top[1])

	assert.Len(t, TopFoods(entries, 0), 3)
}
