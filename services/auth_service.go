package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/utils"
)

const (
	minPasswordLen = 8
	resetCodeLen   = 6
	resetCodeTTL   = 15 * time.Minute
	// wrong guesses before a reset code is burned
	maxResetAttempts = 5
)

type resetMailer interface {
	SendResetCode(ctx context.Context, to, code string) error
}

type AuthService struct {
	db     *gorm.DB
	mailer resetMailer
	secret string
	ttl    time.Duration
	now    func() time.Time
	log    *logrus.Entry
}

func NewAuthService(db *gorm.DB, mailer resetMailer, secret string, ttl time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		db:     db,
		mailer: mailer,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		log:    log.WithField("component", "auth"),
	}
}

type RegisterReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Timezone string `json:"timezone"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", invalidf("invalid email address")
	}
	return s, nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterReq) (*AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, invalidf("password must be at least %d characters", minPasswordLen)
	}
	tz, err := validTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, dbErr("check email", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: email, Password: hash, FullName: strings.TrimSpace(req.FullName), Timezone: tz}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, dbErr("create user", err)
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, req LoginReq) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, dbErr("load user", err)
	}
	if !utils.CheckPasswordHash(req.Password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(&u)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	tok, err := utils.GenerateJWT(u.ID, u.Email, s.secret, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: tok, User: u}, nil
}

// ForgotPassword stores a short-lived code and mails it. Unknown emails
// return nil so callers answer the same way for every address.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return dbErr("load user", err)
	}

	code, err := utils.GenerateNumericCode(resetCodeLen)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&u).Updates(map[string]any{
		"reset_code":     code,
		"reset_code_exp": s.now().Add(resetCodeTTL),
		"reset_attempts": 0,
	}).Error
	if err != nil {
		return dbErr("store reset code", err)
	}
	if s.mailer != nil {
		if err := s.mailer.SendResetCode(ctx, email, code); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("reset code email failed")
			return err
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return invalidf("password must be at least %d characters", minPasswordLen)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return dbErr("load user", err)
	}
	if u.ResetCode == "" || s.now().After(u.ResetCodeExp) {
		return ErrInvalidResetCode
	}
	if subtle.ConstantTimeCompare([]byte(u.ResetCode), []byte(strings.TrimSpace(code))) != 1 {
		if err := s.recordFailedReset(ctx, &u); err != nil {
			return err
		}
		return ErrInvalidResetCode
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&u).Updates(map[string]any{
		"password":       hash,
		"reset_code":     "",
		"reset_code_exp": time.Time{},
		"reset_attempts": 0,
	}).Error
	return dbErr("reset password", err)
}

// recordFailedReset counts a wrong code and burns the code once the
// attempts run out, so a new one has to be requested.
func (s *AuthService) recordFailedReset(ctx context.Context, u *models.User) error {
	db := s.db.WithContext(ctx).Model(u)
	if u.ResetAttempts+1 < maxResetAttempts {
		err := db.UpdateColumn("reset_attempts", gorm.Expr("reset_attempts + ?", 1)).Error
		return dbErr("count reset attempt", err)
	}
	s.log.WithField("user_id", u.ID).Warn("reset code burned after too many attempts")
	err := db.Updates(map[string]any{
		"reset_code":     "",
		"reset_code_exp": time.Time{},
		"reset_attempts": 0,
	}).Error
	return dbErr("burn reset code", err)
}
