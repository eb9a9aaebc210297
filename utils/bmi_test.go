package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(180, 80)
	require.NoError(t, err)
	assert.Equal(t, 24.7, bmi)
	assert.Equal(t, "normal", BMICategory(bmi))

	_, err = CalculateBMI(0, 80)
	assert.Error(t, err)
	_, err = CalculateBMI(300, 80)
	assert.Error(t, err)
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "", BMICategory(0))
	assert.Equal(t, "underweight", BMICategory(17))
	assert.Equal(t, "overweight", BMICategory(27.3))
	assert.Equal(t, "obese", BMICategory(31))
}

func TestHealthyWeightRange(t *testing.T) {
	lo, hi := HealthyWeightRange(180)
	assert.Equal(t, 59.9, lo)
	assert.Equal(t, 80.7, hi)
}
