package nutrition

import (
	"fmt"
	"math"

	"github.com/Kobaiko/carbculator/models"
)

const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"

	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

var activityMultipliers = map[string]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

var goalAdjustments = map[string]float64{
	GoalLose:     -500,
	GoalMaintain: 0,
	GoalGain:     300,
}

// Macro split of calories (protein / carbs / fat).
const (
	proteinShare = 0.30
	carbsShare   = 0.40
	fatShare     = 0.30

	fiberPer1000Kcal  = 14.0
	sugarShare        = 0.10
	defaultSodiumMg   = 2300.0
	waterMlPerKg      = 35.0
	minCaloriesFemale = 1200.0
	minCaloriesMale   = 1500.0
)

// BodyProfile is what the onboarding wizard collects.
type BodyProfile struct {
	Sex           string  `json:"sex"`
	Age           int     `json:"age"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	ActivityLevel string  `json:"activity_level"`
	GoalType      string  `json:"goal_type"`
}

func (p BodyProfile) Validate() error {
	if p.Sex != "male" && p.Sex != "female" {
		return fmt.Errorf("sex must be male or female")
	}
	if p.Age < 13 || p.Age > 100 {
		return fmt.Errorf("age must be between 13 and 100")
	}
	if p.HeightCm < 100 || p.HeightCm > 250 {
		return fmt.Errorf("height must be between 100 and 250 cm")
	}
	if p.WeightKg < 30 || p.WeightKg > 300 {
		return fmt.Errorf("weight must be between 30 and 300 kg")
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		return fmt.Errorf("unknown activity level %q", p.ActivityLevel)
	}
	if _, ok := goalAdjustments[p.GoalType]; !ok {
		return fmt.Errorf("unknown goal type %q", p.GoalType)
	}
	return nil
}

type GoalPlan struct {
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	WaterMl  float64 `json:"water_ml"`
}

// BMR is the Mifflin-St Jeor resting energy expenditure in kcal/day.
func BMR(p BodyProfile) float64 {
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == "female" {
		return base - 161
	}
	return base + 5
}

// CalculateGoals derives daily targets from a body profile.
func CalculateGoals(p BodyProfile) (*GoalPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bmr := BMR(p)
	tdee := bmr * activityMultipliers[p.ActivityLevel]
	kcal := tdee + goalAdjustments[p.GoalType]

	floor := minCaloriesMale
	if p.Sex == "female" {
		floor = minCaloriesFemale
	}
	if kcal < floor {
		kcal = floor
	}
	kcal = math.Round(kcal)

	return &GoalPlan{
		BMR:      Round2(bmr),
		TDEE:     Round2(tdee),
		Calories: kcal,
		Protein:  math.Round(kcal * proteinShare / kcalPerGramProtein),
		Carbs:    math.Round(kcal * carbsShare / kcalPerGramCarbs),
		Fat:      math.Round(kcal * fatShare / kcalPerGramFat),
		Fiber:    math.Round(kcal / 1000 * fiberPer1000Kcal),
		Sugar:    math.Round(kcal * sugarShare / kcalPerGramCarbs),
		Sodium:   defaultSodiumMg,
		WaterMl:  math.Round(p.WeightKg * waterMlPerKg),
	}, nil
}

// Goal converts the plan into a NutritionGoal row for userID.
func (p GoalPlan) Goal(userID uint) models.NutritionGoal {
	return models.NutritionGoal{
		UserID:   userID,
		Calories: p.Calories,
		Protein:  p.Protein,
		Carbs:    p.Carbs,
		Fat:      p.Fat,
		Fiber:    p.Fiber,
		Sugar:    p.Sugar,
		Sodium:   p.Sodium,
		WaterMl:  p.WaterMl,
	}
}
