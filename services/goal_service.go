package services

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

type GoalService struct {
	db *gorm.DB
}

func NewGoalService(db *gorm.DB) *GoalService { return &GoalService{db: db} }

// GoalPatch is a partial update; nil fields keep their value.
type GoalPatch struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
	Fiber    *float64 `json:"fiber"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
	WaterMl  *float64 `json:"water_ml"`
}

func (s *GoalService) Get(ctx context.Context, userID uint) (models.NutritionGoal, error) {
	return loadGoal(ctx, s.db, userID)
}

func (s *GoalService) Update(ctx context.Context, userID uint, p GoalPatch) (*models.NutritionGoal, error) {
	for field, v := range map[string]*float64{
		"calories": p.Calories, "protein": p.Protein, "carbs": p.Carbs, "fat": p.Fat,
		"fiber": p.Fiber, "sugar": p.Sugar, "sodium": p.Sodium, "water_ml": p.WaterMl,
	} {
		if v != nil && (*v < 0 || math.IsNaN(*v)) {
			return nil, invalidf("%s must be non-negative", field)
		}
	}
	g, err := loadGoal(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	setIf(&g.Calories, p.Calories)
	setIf(&g.Protein, p.Protein)
	setIf(&g.Carbs, p.Carbs)
	setIf(&g.Fat, p.Fat)
	setIf(&g.Fiber, p.Fiber)
	setIf(&g.Sugar, p.Sugar)
	setIf(&g.Sodium, p.Sodium)
	setIf(&g.WaterMl, p.WaterMl)

	if err := saveGoal(ctx, s.db, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Calculate derives a plan from the body profile. When apply is set the
// plan replaces the user's goal.
func (s *GoalService) Calculate(ctx context.Context, userID uint, p nutrition.BodyProfile, apply bool) (*nutrition.GoalPlan, error) {
	plan, err := nutrition.CalculateGoals(p)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	if apply {
		g := plan.Goal(userID)
		if err := saveGoal(ctx, s.db, &g); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// saveGoal upserts the single goal row of g.UserID and copies its id
// back into g.
func saveGoal(ctx context.Context, db *gorm.DB, g *models.NutritionGoal) error {
	var row models.NutritionGoal
	err := db.WithContext(ctx).
		Where("user_id = ?", g.UserID).
		Assign(map[string]any{
			"user_id":  g.UserID,
			"calories": g.Calories,
			"protein":  g.Protein,
			"carbs":    g.Carbs,
			"fat":      g.Fat,
			"fiber":    g.Fiber,
			"sugar":    g.Sugar,
			"sodium":   g.Sodium,
			"water_ml": g.WaterMl,
		}).
		FirstOrCreate(&row).Error
	if err != nil {
		return dbErr("save goal", err)
	}
	g.ID, g.CreatedAt = row.ID, row.CreatedAt
	return nil
}
