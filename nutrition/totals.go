package nutrition

import (
	"math"
	"time"

	"github.com/Kobaiko/carbculator/models"
)

// Totals is a sum of nutrients over any set of entries.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	WaterMl  float64 `json:"water_ml"`
	Entries  int     `json:"entries"`
}

func (t *Totals) AddEntry(e models.FoodEntry) {
	t.Calories += e.Calories
	t.Protein += e.Protein
	t.Carbs += e.Carbs
	t.Fat += e.Fat
	t.Fiber += e.Fiber
	t.Sugar += e.Sugar
	t.Sodium += e.Sodium
	t.Entries++
}

func (t *Totals) AddWater(w models.WaterEntry) {
	t.WaterMl += w.AmountMl
}

// Plus returns the element-wise sum.
func (t Totals) Plus(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
		Fiber:    t.Fiber + o.Fiber,
		Sugar:    t.Sugar + o.Sugar,
		Sodium:   t.Sodium + o.Sodium,
		WaterMl:  t.WaterMl + o.WaterMl,
		Entries:  t.Entries + o.Entries,
	}
}

// Rounded rounds every nutrient to two decimals for display.
func (t Totals) Rounded() Totals {
	return Totals{
		Calories: Round2(t.Calories),
		Protein:  Round2(t.Protein),
		Carbs:    Round2(t.Carbs),
		Fat:      Round2(t.Fat),
		Fiber:    Round2(t.Fiber),
		Sugar:    Round2(t.Sugar),
		Sodium:   Round2(t.Sodium),
		WaterMl:  Round2(t.WaterMl),
		Entries:  t.Entries,
	}
}

// SumEntries totals food entries.
func SumEntries(entries []models.FoodEntry) Totals {
	var t Totals
	for _, e := range entries {
		t.AddEntry(e)
	}
	return t
}

// SumWater totals water entries in ml.
func SumWater(water []models.WaterEntry) float64 {
	var ml float64
	for _, w := range water {
		ml += w.AmountMl
	}
	return ml
}

// GoalTotals expresses a daily goal as Totals, multiplied by days.
func GoalTotals(g models.NutritionGoal, days int) Totals {
	n := float64(days)
	return Totals{
		Calories: g.Calories * n,
		Protein:  g.Protein * n,
		Carbs:    g.Carbs * n,
		Fat:      g.Fat * n,
		Fiber:    g.Fiber * n,
		Sugar:    g.Sugar * n,
		Sodium:   g.Sodium * n,
		WaterMl:  g.WaterMl * n,
	}
}

// MacroSplit is the share of macro calories, in percent.
type MacroSplit struct {
	Protein float64 `json:"protein_pct"`
	Carbs   float64 `json:"carbs_pct"`
	Fat     float64 `json:"fat_pct"`
}

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

// SplitMacros computes the macro distribution of t. All zero without macros.
func SplitMacros(t Totals) MacroSplit {
	p := t.Protein * kcalPerGramProtein
	c := t.Carbs * kcalPerGramCarbs
	f := t.Fat * kcalPerGramFat
	sum := p + c + f
	if sum <= 0 {
		return MacroSplit{}
	}
	return MacroSplit{
		Protein: Round2(p / sum * 100),
		Carbs:   Round2(c / sum * 100),
		Fat:     Round2(f / sum * 100),
	}
}

// Percent is consumed as a percentage of goal; 0 when no goal is set.
func Percent(consumed, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return Round2(consumed / goal * 100)
}

// Progress is consumed/goal clamped to [0, 1], for progress bars.
func Progress(consumed, goal float64) float64 {
	if goal <= 0 || consumed <= 0 {
		return 0
	}
	p := consumed / goal
	if p > 1 {
		return 1
	}
	return Round2(p)
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// groupByDay indexes totals by local date key.
func groupByDay(entries []models.FoodEntry, water []models.WaterEntry, loc *time.Location) map[string]Totals {
	out := make(map[string]Totals)
	for _, e := range entries {
		k := DayKey(e.EatenAt, loc)
		t := out[k]
		t.AddEntry(e)
		out[k] = t
	}
	for _, w := range water {
		k := DayKey(w.LoggedAt, loc)
		t := out[k]
		t.AddWater(w)
		out[k] = t
	}
	return out
}
