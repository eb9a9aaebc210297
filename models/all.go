package models

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&NutritionGoal{},
		&FoodEntry{},
		&WaterEntry{},
		&WeightEntry{},
		&DailySummary{},
		&Alert{},
		&UserDevice{},
	}
}
