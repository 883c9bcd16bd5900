package sandbox

import (
	"fmt"
	"time"
)

// TimeoutError is returned when a command is killed after its deadline.
type TimeoutError struct {
	Command string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Command, e.After)
}
