package nutrition

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Kobaiko/carbculator/models"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityCaution Severity = "caution"
	SeverityHigh    Severity = "high"
)

// Warning is one finding about a food entry.
type Warning struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Metric   string   `json:"metric,omitempty"`
	Value    float64  `json:"value,omitempty"`
	Limit    float64  `json:"limit,omitempty"`
}

// SafetyContext carries the per-user limits the rules compare against.
type SafetyContext struct {
	AgeYears      int
	CalorieTarget float64 // 0 → 2000 kcal
	SugarLimit    float64 // g/day; 0 → 10% of calories
	SodiumLimit   float64 // mg/day; 0 → age based
}

func NewSafetyContext(u *models.User, g models.NutritionGoal, now time.Time) SafetyContext {
	return SafetyContext{
		AgeYears:      u.AgeAt(now),
		CalorieTarget: g.Calories,
		SugarLimit:    g.Sugar,
		SodiumLimit:   g.Sodium,
	}
}

func (c SafetyContext) kcalTarget() float64 {
	if c.CalorieTarget > 0 {
		return c.CalorieTarget
	}
	return 2000
}

func (c SafetyContext) sugarLimit() float64 {
	if c.SugarLimit > 0 {
		return c.SugarLimit
	}
	return c.kcalTarget() * sugarShare / kcalPerGramCarbs
}

func (c SafetyContext) sodiumLimit() float64 {
	if c.SodiumLimit > 0 {
		return c.SodiumLimit
	}
	switch a := c.AgeYears; {
	case a > 0 && a <= 3:
		return 1200
	case a >= 4 && a <= 8:
		return 1500
	case a >= 9 && a <= 13:
		return 1800
	default:
		return defaultSodiumMg
	}
}

// AssessEntry applies the dietary rules to a single entry. Rules only fire
// on values that are present.
func AssessEntry(e models.FoodEntry, ctx SafetyContext) []Warning {
	var ws []Warning
	kcal := e.Calories
	if kcal <= 0 {
		kcal = e.Protein*kcalPerGramProtein + e.Carbs*kcalPerGramCarbs + e.Fat*kcalPerGramFat
	}

	// sugar
	if e.Sugar > 0 {
		if kcal > 0 {
			if pct := e.Sugar * kcalPerGramCarbs / kcal; pct >= 0.25 {
				ws = append(ws, Warning{
					Code:     "sugar_high_item",
					Severity: SeverityCaution,
					Message:  fmt.Sprintf("Sugars make up %.0f%% of this item's calories.", pct*100),
					Metric:   "sugar_pct_of_item_kcal",
					Value:    Round2(pct * 100),
					Limit:    25,
				})
			}
		}
		if share := e.Sugar / ctx.sugarLimit(); share >= 0.20 {
			sev := SeverityCaution
			if share >= 0.40 {
				sev = SeverityHigh
			}
			ws = append(ws, Warning{
				Code:     "sugar_daily_share",
				Severity: sev,
				Message:  fmt.Sprintf("This serving uses ~%.0f%% of the daily sugar limit.", share*100),
				Metric:   "sugar_pct_of_daily_limit",
				Value:    Round2(share * 100),
				Limit:    100,
			})
		}
	}

	// sodium
	if e.Sodium > 0 {
		if share := e.Sodium / ctx.sodiumLimit(); share >= 0.20 {
			sev := SeverityCaution
			if share >= 0.40 {
				sev = SeverityHigh
			}
			ws = append(ws, Warning{
				Code:     "sodium_daily_share",
				Severity: sev,
				Message:  fmt.Sprintf("High sodium for one serving (~%.0f%% of the daily limit).", share*100),
				Metric:   "sodium_pct_of_daily_limit",
				Value:    Round2(share * 100),
				Limit:    100,
			})
		}
	}

	// portion size
	if kcal > 0 {
		if share := kcal / ctx.kcalTarget(); share >= 0.50 {
			ws = append(ws, Warning{
				Code:     "large_portion",
				Severity: SeverityCaution,
				Message:  fmt.Sprintf("This entry is ~%.0f%% of your daily calorie target.", share*100),
				Metric:   "kcal_pct_of_daily_target",
				Value:    Round2(share * 100),
				Limit:    50,
			})
		}
	}

	// macro distribution, only for substantial items
	if kcal >= 100 {
		split := SplitMacros(Totals{Protein: e.Protein, Carbs: e.Carbs, Fat: e.Fat})
		if split.Fat > 45 {
			ws = append(ws, Warning{
				Code:     "fat_heavy",
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("Fat is ~%.0f%% of this item's macro calories.", split.Fat),
				Metric:   "fat_pct_of_macro_kcal",
				Value:    split.Fat,
			})
		}
		if split.Carbs > 70 {
			ws = append(ws, Warning{
				Code:     "carb_heavy",
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("Carbohydrates are ~%.0f%% of this item's macro calories; pair it with protein.", split.Carbs),
				Metric:   "carb_pct_of_macro_kcal",
				Value:    split.Carbs,
			})
		}
		if split.Protein > 0 && split.Protein < 10 {
			ws = append(ws, Warning{
				Code:     "protein_light",
				Severity: SeverityInfo,
				Message:  "Low in protein for its calories.",
				Metric:   "protein_pct_of_macro_kcal",
				Value:    split.Protein,
			})
		}
	}

	// fiber density for carbohydrate foods
	if kcal > 0 && e.Carbs >= 15 && e.Fiber > 0 {
		per100 := e.Fiber / kcal * 100
		switch {
		case per100 < 1.0:
			ws = append(ws, Warning{
				Code:     "fiber_low",
				Severity: SeverityInfo,
				Message:  "Low fiber for a carbohydrate food; whole grains, fruit or vegetables add more.",
				Metric:   "fiber_g_per_100kcal",
				Value:    Round2(per100),
			})
		case per100 >= 2.5:
			ws = append(ws, Warning{
				Code:     "fiber_good",
				Severity: SeverityInfo,
				Message:  "Good fiber density.",
				Metric:   "fiber_g_per_100kcal",
				Value:    Round2(per100),
			})
		}
	}

	name := words(e.Name + " " + e.Description)
	switch {
	case hasPhrase(name, "whole wheat", "whole grain", "brown rice", "oat", "oatmeal", "porridge", "quinoa", "bulgur", "rye", "wholemeal"):
		ws = append(ws, Warning{Code: "whole_grain", Severity: SeverityInfo, Message: "Whole-grain choice."})
	case hasPhrase(name, "white bread", "white rice", "pastry", "pastries", "croissant", "cake", "cupcake", "cracker", "biscuit", "donut", "doughnut"):
		ws = append(ws, Warning{Code: "refined_grain", Severity: SeverityInfo, Message: "Refined-grain item; a whole-grain swap adds fiber."})
	}

	return ws
}

// Flagged reports whether any warning is caution or worse.
func Flagged(ws []Warning) bool {
	for _, w := range ws {
		if w.Severity != SeverityInfo {
			return true
		}
	}
	return false
}

// JoinMessages renders warnings the way they are stored on an entry.
func JoinMessages(ws []Warning) string {
	msgs := make([]string, 0, len(ws))
	for _, w := range ws {
		msgs = append(msgs, w.Message)
	}
	return strings.Join(msgs, "; ")
}

// words lowercases s and joins its letter/digit runs with single spaces,
// padded so phrases can be matched on word boundaries.
func words(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(f, " ") + " "
}

// hasPhrase reports whether any phrase appears as whole words in w, also
// accepting a plural "s" on the last word.
func hasPhrase(w string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(w, " "+p+" ") || strings.Contains(w, " "+p+"s ") {
			return true
		}
	}
	return false
}
