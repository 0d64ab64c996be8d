package locking

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLockHeld is returned when another holder owns a lock that is not stale.
	ErrLockHeld = errors.New("recalculation lock is held")
	// ErrActorRequired is returned when acquire is called without an identity.
	ErrActorRequired = errors.New("lock actor is required")
)

// ContentionError carries the current holder and lock age. Callers retry later.
type ContentionError struct {
	Holder string
	Age    time.Duration
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("recalculation lock held by %q for %s", e.Holder, e.Age.Round(time.Second))
}

func (e *ContentionError) Unwrap() error {
	return ErrLockHeld
}
