package services

import "errors"

// Image errors
var (
	ErrMalformedImage   = errors.New("malformed image")
	ErrEmptyImage       = errors.New("empty image data")
	ErrImageTooLarge    = errors.New("image exceeds upload limit")
	ErrUnsupportedImage = errors.New("file is not a supported image")
	ErrTooManyPixels    = errors.New("image dimensions exceed limit")
)

// Input validation errors, raised before any state changes
var (
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrInvalidScreen    = errors.New("unknown screen")
	ErrInvalidMode      = errors.New("unknown mode")
	ErrInvalidOutcome   = errors.New("outcome must be 'win' or 'loss'")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// Gating errors
var (
	ErrPremiumRequired   = errors.New("premium required")
	ErrNoImage           = errors.New("no image uploaded")
	ErrAnalysisInFlight  = errors.New("an analysis is already running")
	ErrCooldownActive    = errors.New("cooldown active")
	ErrNoCurrentAnalysis = errors.New("no analysis to attach an outcome to")
	ErrOutcomeRecorded   = errors.New("outcome already recorded for this analysis")
)
