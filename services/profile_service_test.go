package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBirthDate(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	bd, err := parseBirthDate("1990-06-01", now)
	require.NoError(t, err)
	assert.Equal(t, 1990, bd.Year())

	bd, err = parseBirthDate("  ", now)
	require.NoError(t, err)
	assert.Nil(t, bd)

	_, err = parseBirthDate("01/06/1990", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = parseBirthDate("2030-01-01", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidTimezone(t *testing.T) {
	tz, err := validTimezone("")
	require.NoError(t, err)
	assert.Equal(t, "UTC", tz)

	tz, err = validTimezone(" Europe/Paris ")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", tz)

	_, err = validTimezone("Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProfileGet(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProfileService(db, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRow(3, "Europe/Paris"))

	p, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 33, p.Age)
	assert.Equal(t, "1990-06-01", p.BirthDate)
	assert.Equal(t, "Europe/Paris", p.Timezone)
}

func TestProfileUpdateValidates(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProfileService(db, nil)
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRow(3, "UTC"))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRow(3, "UTC"))

	_, err := svc.Update(context.Background(), 3, ProfilePatch{HeightCm: ptr(20.0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), 3, ProfilePatch{Avatar: ptr("data:image/png;base64,AAAA")})
	assert.ErrorContains(t, err, "not configured")
}

func TestProfileUpdateSaves(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProfileService(db, nil)
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRow(3, "UTC"))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := svc.Update(context.Background(), 3, ProfilePatch{FullName: ptr(" Ana Lima "), Timezone: ptr("Asia/Tokyo")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", p.FullName)
	assert.Equal(t, "Asia/Tokyo", p.Timezone)
}

func TestOnboardRejectsBadInput(t *testing.T) {
	svc := NewProfileService(nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Onboard(context.Background(), 3, OnboardingInput{
		Sex: "female", BirthDate: "1990-06-01", HeightCm: 165, WeightKg: 60,
		ActivityLevel: "couch", GoalType: "maintain",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Onboard(context.Background(), 3, OnboardingInput{
		Sex: "female", BirthDate: "1990-06-01", HeightCm: 165, WeightKg: 60,
		ActivityLevel: "light", GoalType: "maintain", Timezone: "Nowhere/City",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
