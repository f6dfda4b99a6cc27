package config

import "errors"

var (
	// ErrInvalidConfig wraps values Validate rejects.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading .env, the config file or env.
	ErrLoadConfig = errors.New("load config failed")
)
