package common

import "errors"

// ErrInvalidJSON is returned when user-supplied configuration text is not
// valid JSON
var ErrInvalidJSON = errors.New("invalid JSON")
