package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newMockDB returns a gorm handle over sqlmock. Expectations are checked
// when the test ends.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db, mock
}

var userColumns = []string{"id", "email", "password", "full_name", "sex", "birth_date", "height_cm", "timezone", "target_weight"}

func userRow(id uint, tz string) *sqlmock.Rows {
	bd := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(userColumns).AddRow(id, "ana@example.com", "hash", "Ana", "female", bd, 165.0, tz, 0.0)
}

type event struct {
	userID uint
	kind   string
	data   any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeBroadcaster) Broadcast(userID uint, kind string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{userID, kind, data})
}

func (f *fakeBroadcaster) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.kind)
	}
	return out
}

type emitted struct {
	userID         uint
	typ, code, msg string
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls []emitted
}

func (f *fakeAlerts) EmitOncePerDay(_ context.Context, userID uint, _ *time.Location, _ time.Time, typ, code, msg string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emitted{userID, typ, code, msg})
	return true, nil
}
