package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateID is returned when a generated primary key is already taken.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrTokenNotFound is returned when a one-time token matches no live record.
	ErrTokenNotFound = errors.New("token not found or expired")
	// ErrTrackingNotFound is returned when an order has no live tracking document.
	ErrTrackingNotFound = errors.New("tracking not found")
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateID)
}
