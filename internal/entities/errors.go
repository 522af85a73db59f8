package entities

import (
	"errors"
	"fmt"
)

// ErrNoPayload marks analysis text with no locatable JSON object. Callers
// treat it as "nothing to parse", not as damage.
var ErrNoPayload = errors.New("no JSON payload in analysis text")

// ParseError reports a located analysis payload that could not be decoded
// against the expected schema.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v (raw: %s)", e.Reason, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
