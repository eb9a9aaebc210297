package nutrition

import (
	"errors"
	"fmt"
	"time"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var ErrInvalidRange = errors.New("`to` must be on/after `from`")

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("period must be one of day, week, month, year (got %q)", s)
	}
}

// key returns the bucket key and bucket start for a local day.
func (p Period) key(day time.Time) (string, time.Time) {
	switch p {
	case PeriodWeek:
		ws := WeekStart(day)
		return ws.Format(DateLayout), ws
	case PeriodMonth:
		ms := MonthStart(day)
		return ms.Format("2006-01"), ms
	case PeriodYear:
		ys := YearStart(day)
		return ys.Format("2006"), ys
	default:
		return day.Format(DateLayout), day
	}
}

// Bucket is one period of a rollup. Average divides by logged days, Percent
// compares the logged-day average with the daily goal.
type Bucket struct {
	Key         string             `json:"key"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	Days        int                `json:"days"`
	DaysLogged  int                `json:"days_logged"`
	WaterDays   int                `json:"water_days"`
	Totals      Totals             `json:"totals"`
	Average     Totals             `json:"average"`
	Goal        Totals             `json:"goal"`
	Percent     map[string]float64 `json:"percent"`
	DaysOnTrack int                `json:"days_on_track"`
	DaysGoalMet int                `json:"days_goal_met"`
	Adherence   float64            `json:"adherence"`
}

// Rollup aggregates the input into period buckets covering [from, to]
// (local days, inclusive). Empty buckets are included so charts have a
// continuous axis.
func Rollup(in Input, from, to time.Time, period Period) ([]Bucket, error) {
	loc := in.loc()
	from, to = civilDate(from, loc), civilDate(to, loc)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	byDay := groupByDay(in.Entries, in.Water, loc)

	var (
		out []Bucket
		cur *Bucket
	)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key, start := period.key(d)
		if cur == nil || cur.Key != key {
			if cur != nil {
				out = append(out, finishBucket(*cur, in))
			}
			bs := start
			if bs.Before(from) {
				bs = from
			}
			cur = &Bucket{Key: key, Start: bs.Format(DateLayout)}
		}

		dk := d.Format(DateLayout)
		t := byDay[dk]
		cur.End = dk
		cur.Days++
		cur.Totals = cur.Totals.Plus(t)
		if t.WaterMl > 0 {
			cur.WaterDays++
		}
		if t.Entries > 0 {
			cur.DaysLogged++
			ds := ClassifyDay(t, in.Goal, in.Tolerance)
			if ds.Status == StatusOnTrack {
				cur.DaysOnTrack++
			}
			if ds.GoalMet {
				cur.DaysGoalMet++
			}
		}
	}
	if cur != nil {
		out = append(out, finishBucket(*cur, in))
	}
	return out, nil
}

func finishBucket(b Bucket, in Input) Bucket {
	b.Goal = GoalTotals(in.Goal, b.Days).Rounded()

	if b.DaysLogged > 0 {
		n := float64(b.DaysLogged)
		b.Average = Totals{
			Calories: b.Totals.Calories / n,
			Protein:  b.Totals.Protein / n,
			Carbs:    b.Totals.Carbs / n,
			Fat:      b.Totals.Fat / n,
			Fiber:    b.Totals.Fiber / n,
			Sugar:    b.Totals.Sugar / n,
			Sodium:   b.Totals.Sodium / n,
			Entries:  b.Totals.Entries / b.DaysLogged,
		}
		b.Adherence = Percent(float64(b.DaysOnTrack), n)
	}
	if b.WaterDays > 0 {
		b.Average.WaterMl = b.Totals.WaterMl / float64(b.WaterDays)
	}

	g := in.Goal
	b.Percent = map[string]float64{
		"calories": Percent(b.Average.Calories, g.Calories),
		"protein":  Percent(b.Average.Protein, g.Protein),
		"carbs":    Percent(b.Average.Carbs, g.Carbs),
		"fat":      Percent(b.Average.Fat, g.Fat),
		"fiber":    Percent(b.Average.Fiber, g.Fiber),
		"sugar":    Percent(b.Average.Sugar, g.Sugar),
		"sodium":   Percent(b.Average.Sodium, g.Sodium),
		"water":    Percent(b.Average.WaterMl, g.WaterMl),
	}
	b.Totals = b.Totals.Rounded()
	b.Average = b.Average.Rounded()
	return b
}
