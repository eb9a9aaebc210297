package utils

import (
	"errors"
	"math"
)

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	// Sanity checks to avoid garbage input
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0, errors.New("height/weight out of plausible range")
	}

	h := heightCm / 100.0
	return math.Round(weightKg/(h*h)*10) / 10, nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "underweight"
	case bmi < 25.0:
		return "normal"
	case bmi < 30.0:
		return "overweight"
	default:
		return "obese"
	}
}

// HealthyWeightRange is the weight span for BMI 18.5 to 24.9 at heightCm.
func HealthyWeightRange(heightCm float64) (float64, float64) {
	h := heightCm / 100.0
	lo := math.Round(18.5*h*h*10) / 10
	hi := math.Round(24.9*h*h*10) / 10
	return lo, hi
}
