package room

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConflict         = errors.New("participant already in room")
	ErrNotFound         = errors.New("participant not found")
	ErrSenderNotPresent = errors.New("sender is not in the room")
	ErrNoMessages       = errors.New("no messages found")
)

// ValidationError reports every violated field of a request at once,
// not just the first one.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, "; "))
}
