package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoFoodDetected     = errors.New("no food detected in the image")
	ErrNotFood            = errors.New("the image does not look like food")
	ErrImageTooLarge      = errors.New("image is larger than 8 MiB")
	ErrUnsupportedImage   = errors.New("unsupported image type, use JPEG, PNG, WebP or HEIC")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrVisionUnavailable  = errors.New("meal analysis is temporarily unavailable")
)

// invalidf wraps ErrInvalidInput with a user-facing reason.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// dbErr maps gorm's not-found to ErrNotFound and wraps everything else.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
