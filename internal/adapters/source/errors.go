package source

import "errors"

// Sentinel kinds for fetch errors.
var (
	ErrNoLocator         = errors.New("no source locator")
	ErrStatus            = errors.New("unexpected status")
	ErrTooLarge          = errors.New("source exceeds size limit")
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")
)
