package models

import "errors"

// Custom errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownSport  = errors.New("unknown sport")
	ErrInvalidDate   = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrNoPredictions = errors.New("no prediction run available")
)
