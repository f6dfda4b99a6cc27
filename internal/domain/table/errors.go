package table

import "errors"

// ErrMalformed reports text that cannot be read as delimited rows.
var ErrMalformed = errors.New("malformed table")
