package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotConfigured  = errors.New("dataset source not configured")
	ErrFetchFailed    = errors.New("dataset fetch failed")
	ErrUnknownDataset = errors.New("unknown dataset")
)
