package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateGoalsMaintain(t *testing.T) {
	plan, err := CalculateGoals(BodyProfile{
		Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80,
		ActivityLevel: ActivityModerate, GoalType: GoalMaintain,
	})
	require.NoError(t, err)

	assert.Equal(t, 1780.0, plan.BMR)
	assert.Equal(t, 2759.0, plan.TDEE)
	assert.Equal(t, 2759.0, plan.Calories)
	assert.Equal(t, 207.0, plan.Protein)
	assert.Equal(t, 276.0, plan.Carbs)
	assert.Equal(t, 92.0, plan.Fat)
	assert.Equal(t, 39.0, plan.Fiber)
	assert.Equal(t, 69.0, plan.Sugar)
	assert.Equal(t, 2300.0, plan.Sodium)
	assert.Equal(t, 2800.0, plan.WaterMl)

	g := plan.Goal(7)
	assert.Equal(t, uint(7), g.UserID)
	assert.Equal(t, plan.Calories, g.Calories)
	assert.Equal(t, plan.WaterMl, g.WaterMl)
}

func TestCalculateGoalsRespectsCalorieFloor(t *testing.T) {
	plan, err := CalculateGoals(BodyProfile{
		Sex: "female", Age: 25, HeightCm: 165, WeightKg: 60,
		ActivityLevel: ActivitySedentary, GoalType: GoalLose,
	})
	require.NoError(t, err)

	assert.Equal(t, 1345.25, plan.BMR)
	assert.Equal(t, 1614.3, plan.TDEE)
	assert.Equal(t, 1200.0, plan.Calories)
	assert.Equal(t, 90.0, plan.Protein)
	assert.Equal(t, 120.0, plan.Carbs)
	assert.Equal(t, 40.0, plan.Fat)
	assert.Equal(t, 2100.0, plan.WaterMl)
}

func TestBodyProfileValidate(t *testing.T) {
	ok := BodyProfile{Sex: "female", Age: 40, HeightCm: 170, WeightKg: 70, ActivityLevel: ActivityLight, GoalType: GoalGain}
	require.NoError(t, ok.Validate())

	bad := []func(*BodyProfile){
		func(p *BodyProfile) { p.Sex = "" },
		func(p *BodyProfile) { p.Age = 12 },
		func(p *BodyProfile) { p.HeightCm = 260 },
		func(p *BodyProfile) { p.WeightKg = 20 },
		func(p *BodyProfile) { p.ActivityLevel = "couch" },
		func(p *BodyProfile) { p.GoalType = "bulk" },
	}
	for i, mutate := range bad {
		p := ok
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}
