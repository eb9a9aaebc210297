package nutrition

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Kobaiko/carbculator/models"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// flatBand is the |delta %| under which a change is reported as flat.
const flatBand = 1.0

type Change struct {
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	DeltaPct  float64   `json:"delta_pct"`
	Direction Direction `json:"direction"`
}

func Compare(current, previous float64) Change {
	c := Change{Current: Round2(current), Previous: Round2(previous), Direction: DirectionFlat}
	if previous == 0 {
		if current > 0 {
			c.DeltaPct, c.Direction = 100, DirectionUp
		}
		return c
	}
	c.DeltaPct = Round2((current - previous) / previous * 100)
	switch {
	case math.Abs(c.DeltaPct) < flatBand:
		c.Direction = DirectionFlat
	case c.DeltaPct > 0:
		c.Direction = DirectionUp
	default:
		c.Direction = DirectionDown
	}
	return c
}

type Trend struct {
	CurrentFrom        string            `json:"current_from"`
	CurrentTo          string            `json:"current_to"`
	PreviousFrom       string            `json:"previous_from"`
	PreviousTo         string            `json:"previous_to"`
	CurrentDaysLogged  int               `json:"current_days_logged"`
	PreviousDaysLogged int               `json:"previous_days_logged"`
	Metrics            map[string]Change `json:"metrics"`
	Adherence          Change            `json:"adherence"`
}

// CompareBuckets compares the logged-day averages of two rollup buckets.
func CompareBuckets(cur, prev Bucket) Trend {
	return Trend{
		CurrentFrom:        cur.Start,
		CurrentTo:          cur.End,
		PreviousFrom:       prev.Start,
		PreviousTo:         prev.End,
		CurrentDaysLogged:  cur.DaysLogged,
		PreviousDaysLogged: prev.DaysLogged,
		Metrics: map[string]Change{
			"calories": Compare(cur.Average.Calories, prev.Average.Calories),
			"protein":  Compare(cur.Average.Protein, prev.Average.Protein),
			"carbs":    Compare(cur.Average.Carbs, prev.Average.Carbs),
			"fat":      Compare(cur.Average.Fat, prev.Average.Fat),
			"fiber":    Compare(cur.Average.Fiber, prev.Average.Fiber),
			"sugar":    Compare(cur.Average.Sugar, prev.Average.Sugar),
			"sodium":   Compare(cur.Average.Sodium, prev.Average.Sodium),
			"water":    Compare(cur.Average.WaterMl, prev.Average.WaterMl),
		},
		Adherence: Compare(cur.Adherence, prev.Adherence),
	}
}

// WeekOverWeek compares this week (Monday through today) with the whole
// previous week.
func WeekOverWeek(in Input, today time.Time) (Trend, error) {
	day := DayStart(today, in.loc())
	ws := WeekStart(day)

	cur, err := Rollup(in, ws, day, PeriodWeek)
	if err != nil {
		return Trend{}, err
	}
	prev, err := Rollup(in, AddDays(ws, -7), AddDays(ws, -1), PeriodWeek)
	if err != nil {
		return Trend{}, err
	}
	return CompareBuckets(cur[0], prev[0]), nil
}

// MovingAverage returns the trailing mean over window values; the first
// window-1 points average what is available.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = Round2(sum / float64(n))
	}
	return out
}

type FoodCount struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Calories float64 `json:"calories"`
}

// TopFoods ranks foods by how often they were logged.
func TopFoods(entries []models.FoodEntry, n int) []FoodCount {
	idx := map[string]*FoodCount{}
	var order []string
	for _, e := range entries {
		key := strings.ToLower(strings.Join(strings.Fields(e.Name), " "))
		if key == "" {
			continue
		}
		fc, ok := idx[key]
		if !ok {
			fc = &FoodCount{Name: strings.TrimSpace(e.Name)}
			idx[key] = fc
			order = append(order, key)
		}
		fc.Count++
		fc.Calories += e.Calories
	}

	out := make([]FoodCount, 0, len(order))
	for _, k := range order {
		fc := *idx[k]
		fc.Calories = Round2(fc.Calories)
		out = append(out, fc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Calories > out[j].Calories
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
