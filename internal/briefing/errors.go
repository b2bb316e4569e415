package briefing

import (
	"errors"
	"fmt"
)

// ErrRunInProgress signals that a run is already active. The caller gets it
// immediately rather than queueing behind the active run.
var ErrRunInProgress = errors.New("briefing run already in progress")

// ErrUserNotFound signals a request for an email with no registered profile.
var ErrUserNotFound = errors.New("user not registered")

// ParseError indicates the model returned output that could not be decoded
// into the expected JSON shape. Stages recover from it locally by returning
// an empty or partial result.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model output in %s stage: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
