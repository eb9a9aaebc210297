package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kobaiko/carbculator/nutrition"
)

func ptr[T any](v T) *T { return &v }

func TestGoalUpdateRejectsNegative(t *testing.T) {
	svc := NewGoalService(nil)
	_, err := svc.Update(context.Background(), 1, GoalPatch{Calories: ptr(2000.0), Fat: ptr(-5.0)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "fat")
}

func TestGoalUpdateKeepsUnsetFields(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewGoalService(db)

	mock.ExpectQuery(`SELECT \* FROM "nutrition_goals"`).
		WillReturnRows(sqlmock.NewRows(goalColumns).AddRow(1, 5, 2000.0, 120.0, 200.0, 60.0, 2500.0))
	mock.ExpectQuery(`SELECT \* FROM "nutrition_goals"`).
		WillReturnRows(sqlmock.NewRows(goalColumns).AddRow(1, 5, 2000.0, 120.0, 200.0, 60.0, 2500.0))
	mock.ExpectExec(`UPDATE "nutrition_goals"`).WillReturnResult(sqlmock.NewResult(0, 1))

	g, err := svc.Update(context.Background(), 5, GoalPatch{Calories: ptr(1800.0)})
	require.NoError(t, err)
	assert.Equal(t, 1800.0, g.Calories)
	assert.Equal(t, 120.0, g.Protein)
	assert.Equal(t, 2500.0, g.WaterMl)
}

func TestGoalCalculateWithoutApply(t *testing.T) {
	svc := NewGoalService(nil)
	plan, err := svc.Calculate(context.Background(), 1, nutrition.BodyProfile{
		Sex: "female", Age: 30, HeightCm: 165, WeightKg: 60, ActivityLevel: "moderate", GoalType: "maintain",
	}, false)
	require.NoError(t, err)
	assert.Greater(t, plan.Calories, 1200.0)

	_, err = svc.Calculate(context.Background(), 1, nutrition.BodyProfile{Sex: "x"}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
