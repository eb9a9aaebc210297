package nutrition

import (
	"time"

	"github.com/Kobaiko/carbculator/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func food(name string, at time.Time, kcal, protein, carbs, fat float64) models.FoodEntry {
	return models.FoodEntry{
		Name:     name,
		EatenAt:  at,
		Calories: kcal,
		Protein:  protein,
		Carbs:    carbs,
		Fat:      fat,
	}
}

func kcalAt(at time.Time, kcal float64) models.FoodEntry {
	return food("meal", at.Add(12*time.Hour), kcal, 0, 0, 0)
}

func water(at time.Time, ml float64) models.WaterEntry {
	return models.WaterEntry{AmountMl: ml, LoggedAt: at.Add(9 * time.Hour)}
}
