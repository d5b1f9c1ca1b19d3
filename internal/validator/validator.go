package validator

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	maxDescriptionLength = 200
	maxAccountNameLength = 100
	dateSlack            = 24 * time.Hour
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrZeroAmount         = errors.New("transaction amount cannot be zero")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrDateInFuture       = errors.New("transaction date is in the future")
	ErrEmptyAccountName   = errors.New("account name is empty")
	ErrAccountNameTooLong = errors.New("account name is too long")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateAccountName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyAccountName
	}
	if len(trimmed) > maxAccountNameLength {
		return ErrAccountNameTooLong
	}
	return nil
}

func ValidateAmount(amountMinor int64) error {
	if amountMinor == 0 {
		return ErrZeroAmount
	}
	return nil
}

func ValidateDescription(description *string) error {
	if description != nil && len(*description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateDate allows a day of slack for client clock skew. Planned
// future transactions carry their own plan_date and are not checked.
func ValidateDate(date time.Time) error {
	if date.After(time.Now().Add(dateSlack)) {
		return ErrDateInFuture
	}
	return nil
}
