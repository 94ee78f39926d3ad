// Package lock serialises read-modify-write cycles on a single submission key.
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAcquired is returned when the lock could not be taken before the wait budget ran out.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive access to a named key.
type Locker interface {
	// Acquire blocks until the key is held or ctx ends. The returned func releases it.
	Acquire(ctx context.Context, key string) (func(), error)
}

// SubmissionKey names the lock guarding one (activity, student, problem) record.
func SubmissionKey(activityID, studentID, problemID uint) string {
	return fmt.Sprintf("submission:%d:%d:%d", activityID, studentID, problemID)
}
