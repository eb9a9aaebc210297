package nutrition

import (
	"math"
	"time"
)

type HistorySummary struct {
	Days          int     `json:"days"`
	DaysLogged    int     `json:"days_logged"`
	DaysOnTrack   int     `json:"days_on_track"`
	DaysGoalMet   int     `json:"days_goal_met"`
	Adherence     float64 `json:"adherence"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LoggingStreak int     `json:"logging_streak"`
	BestDay       string  `json:"best_day,omitempty"`
	WorstDay      string  `json:"worst_day,omitempty"`
}

type History struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Days    []DayStatus    `json:"days"`
	Summary HistorySummary `json:"summary"`
}

// BuildHistory classifies every local day in [from, to] and summarizes
// adherence and streaks as of today. Streaks only see days inside the
// range, so callers wanting a long streak should pass a long range.
func BuildHistory(in Input, from, to, today time.Time) (*History, error) {
	loc := in.loc()
	from, to, today = civilDate(from, loc), civilDate(to, loc), civilDate(today, loc)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	byDay := groupByDay(in.Entries, in.Water, loc)
	h := &History{From: from.Format(DateLayout), To: to.Format(DateLayout)}

	var (
		run        int
		bestDelta  = math.Inf(1)
		worstDelta = -1.0
	)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		ds := ClassifyDay(byDay[key], in.Goal, in.Tolerance)
		ds.Date = key
		h.Days = append(h.Days, ds)

		s := &h.Summary
		s.Days++
		if ds.Totals.Entries > 0 {
			s.DaysLogged++
			if in.Goal.Calories > 0 {
				delta := math.Abs(ds.CalorieDelta)
				if delta < bestDelta {
					bestDelta, s.BestDay = delta, key
				}
				if delta > worstDelta {
					worstDelta, s.WorstDay = delta, key
				}
			}
		}
		if ds.Status == StatusOnTrack {
			s.DaysOnTrack++
		}
		if ds.GoalMet {
			s.DaysGoalMet++
			run++
			if run > s.LongestStreak {
				s.LongestStreak = run
			}
		} else {
			run = 0
		}
	}

	if h.Summary.DaysLogged > 0 {
		h.Summary.Adherence = Percent(float64(h.Summary.DaysOnTrack), float64(h.Summary.DaysLogged))
	}

	end, inProgress := len(h.Days)-1, false
	if !today.After(to) {
		end = int(today.Sub(from).Hours() / 24)
		inProgress = true
	}
	if !today.Before(from) {
		h.Summary.CurrentStreak = streakEndingAt(h.Days, end, inProgress, func(d DayStatus) bool { return d.GoalMet })
		h.Summary.LoggingStreak = streakEndingAt(h.Days, end, inProgress, func(d DayStatus) bool { return d.Totals.Entries > 0 })
	}
	return h, nil
}

// streakEndingAt counts consecutive matching days ending at idx. When idx
// is today and does not match yet, counting starts from the day before.
func streakEndingAt(days []DayStatus, idx int, inProgress bool, ok func(DayStatus) bool) int {
	if idx >= len(days) {
		idx = len(days) - 1
	}
	if inProgress && idx >= 0 && !ok(days[idx]) {
		idx--
	}
	n := 0
	for i := idx; i >= 0 && ok(days[i]); i-- {
		n++
	}
	return n
}

// Calendar is BuildHistory over one calendar month.
func Calendar(in Input, year int, month time.Month, today time.Time) (*History, error) {
	first := dateStart(year, month, 1, in.loc())
	last := AddDays(AddMonths(first, 1), -1)
	return BuildHistory(in, first, last, today)
}
