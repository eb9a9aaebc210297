package nutrition

import (
	"github.com/Kobaiko/carbculator/models"
)

// Status classifies a day's calories against the calorie goal.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusNoGoal  Status = "no_goal"
	StatusUnder   Status = "under"
	StatusOnTrack Status = "on_track"
	StatusOver    Status = "over"
)

// MetricState classifies a single nutrient against its goal.
type MetricState string

const (
	StateUnset    MetricState = "unset"
	StateBelow    MetricState = "below"
	StateMet      MetricState = "met"
	StateExceeded MetricState = "exceeded"
	StateWithin   MetricState = "within"
)

// DefaultTolerance is the band around a target that still counts as on track.
const DefaultTolerance = 0.10

type MetricProgress struct {
	Consumed float64     `json:"consumed"`
	Goal     float64     `json:"goal"`
	Percent  float64     `json:"percent"`
	Progress float64     `json:"progress"`
	State    MetricState `json:"state"`
}

type DayStatus struct {
	Date         string                    `json:"date"`
	Status       Status                    `json:"status"`
	GoalMet      bool                      `json:"goal_met"`
	CalorieDelta float64                   `json:"calorie_delta"`
	Totals       Totals                    `json:"totals"`
	Metrics      map[string]MetricProgress `json:"metrics"`
}

// how a nutrient's goal is read
type goalKind int

const (
	kindRange goalKind = iota // below / met / exceeded
	kindFloor                 // below / met
	kindLimit                 // within / exceeded
)

// ClassifyDay compares a day's totals with the daily goal. tol <= 0 uses
// DefaultTolerance.
func ClassifyDay(t Totals, g models.NutritionGoal, tol float64) DayStatus {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	ds := DayStatus{Totals: t.Rounded()}

	switch {
	case t.Entries == 0:
		ds.Status = StatusEmpty
	case g.Calories <= 0:
		ds.Status = StatusNoGoal
	case t.Calories < g.Calories*(1-tol):
		ds.Status = StatusUnder
	case t.Calories > g.Calories*(1+tol):
		ds.Status = StatusOver
	default:
		ds.Status = StatusOnTrack
	}
	if g.Calories > 0 && t.Entries > 0 {
		ds.CalorieDelta = Round2(t.Calories - g.Calories)
	}

	ds.Metrics = map[string]MetricProgress{
		"calories": metric(t.Calories, g.Calories, kindRange, tol),
		"protein":  metric(t.Protein, g.Protein, kindFloor, tol),
		"carbs":    metric(t.Carbs, g.Carbs, kindRange, tol),
		"fat":      metric(t.Fat, g.Fat, kindRange, tol),
		"fiber":    metric(t.Fiber, g.Fiber, kindFloor, tol),
		"sugar":    metric(t.Sugar, g.Sugar, kindLimit, tol),
		"sodium":   metric(t.Sodium, g.Sodium, kindLimit, tol),
		"water":    metric(t.WaterMl, g.WaterMl, kindFloor, 0),
	}

	protein := ds.Metrics["protein"].State
	water := ds.Metrics["water"].State
	ds.GoalMet = ds.Status == StatusOnTrack &&
		(protein == StateMet || protein == StateUnset) &&
		(water == StateMet || water == StateUnset)

	return ds
}

func metric(consumed, goal float64, kind goalKind, tol float64) MetricProgress {
	mp := MetricProgress{
		Consumed: Round2(consumed),
		Goal:     Round2(goal),
		Percent:  Percent(consumed, goal),
		Progress: Progress(consumed, goal),
	}
	if goal <= 0 {
		mp.State = StateUnset
		return mp
	}
	switch kind {
	case kindLimit:
		if consumed > goal {
			mp.State = StateExceeded
		} else {
			mp.State = StateWithin
		}
	case kindFloor:
		if consumed >= goal*(1-tol) {
			mp.State = StateMet
		} else {
			mp.State = StateBelow
		}
	default:
		switch {
		case consumed < goal*(1-tol):
			mp.State = StateBelow
		case consumed > goal*(1+tol):
			mp.State = StateExceeded
		default:
			mp.State = StateMet
		}
	}
	return mp
}
