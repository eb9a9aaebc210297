package nutrition

import (
	"time"

	"github.com/Kobaiko/carbculator/models"
)

// Input is everything the aggregations need for one user.
type Input struct {
	Entries   []models.FoodEntry
	Water     []models.WaterEntry
	Goal      models.NutritionGoal
	Location  *time.Location
	Tolerance float64
}

func (in Input) loc() *time.Location {
	if in.Location == nil {
		return time.UTC
	}
	return in.Location
}

// Day returns the status of a single local day.
func (in Input) Day(day time.Time) DayStatus {
	start, end := DayRange(day, in.loc())
	var t Totals
	for _, e := range in.Entries {
		if !e.EatenAt.Before(start) && e.EatenAt.Before(end) {
			t.AddEntry(e)
		}
	}
	for _, w := range in.Water {
		if !w.LoggedAt.Before(start) && w.LoggedAt.Before(end) {
			t.AddWater(w)
		}
	}
	ds := ClassifyDay(t, in.Goal, in.Tolerance)
	ds.Date = start.Format(DateLayout)
	return ds
}
