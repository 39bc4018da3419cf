package domain

import "errors"

var (
	ErrBusy               = errors.New("another attempt just finished")
	ErrDuplicateScan      = errors.New("duplicate scan")
	ErrInvalidToken       = errors.New("invalid check-in token")
	ErrTimeAnomaly        = errors.New("attempt predates last check-in")
	ErrTooSoon            = errors.New("check-in interval not elapsed")
	ErrNoCoupon           = errors.New("no coupon available")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrCheckInNotFound    = errors.New("check-in not found")
	ErrStorageConflict    = errors.New("storage conflict, retry")
)
