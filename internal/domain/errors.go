package domain

import "errors"

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrInvalidAction         = errors.New("action is required")
	ErrInvalidEnrichmentName = errors.New("enrichment name is required")
	ErrInvalidIcon           = errors.New("invalid icon")
	ErrInvalidTimestamp      = errors.New("invalid timestamp")
)
