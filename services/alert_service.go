package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

const (
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// AlertService persists alerts and fans them out over the websocket hub
// and push notifications. rt and push may be nil.
type AlertService struct {
	db   *gorm.DB
	rt   Broadcaster
	push Notifier
	log  *logrus.Entry
}

func NewAlertService(db *gorm.DB, rt Broadcaster, push Notifier, log *logrus.Logger) *AlertService {
	return &AlertService{db: db, rt: rt, push: push, log: log.WithField("component", "alerts")}
}

func (s *AlertService) Emit(ctx context.Context, userID uint, typ, code, message string) (*models.Alert, error) {
	a := &models.Alert{UserID: userID, Type: typ, Code: code, Message: message, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, dbErr("create alert", err)
	}

	if s.rt != nil {
		s.rt.Broadcast(userID, "alert.created", a)
	}
	if s.push != nil {
		s.push.PushToUser(ctx, userID, "Carbculator", message, map[string]string{
			"type": typ, "code": code, "alertId": fmt.Sprintf("%d", a.ID),
		})
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "code": code}).Debug("alert emitted")
	return a, nil
}

// EmitOncePerDay emits unless an alert with the same code already exists
// for the user's current local day. It reports whether one was emitted.
func (s *AlertService) EmitOncePerDay(ctx context.Context, userID uint, loc *time.Location, now time.Time, typ, code, message string) (bool, error) {
	start, end := nutrition.DayRange(now, loc)

	var n int64
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND code = ? AND created_at >= ? AND created_at < ?", userID, code, start, end).
		Count(&n).Error
	if err != nil {
		return false, dbErr("count alerts", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Emit(ctx, userID, typ, code, message); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AlertService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []models.Alert
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, dbErr("list alerts", err)
	}
	return out, nil
}

func (s *AlertService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return dbErr("mark alert read", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
