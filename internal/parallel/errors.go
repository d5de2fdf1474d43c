package parallel

import (
	"errors"
	"sync"

	apperrors "github.com/agbru/primecount/internal/errors"
)

// ErrorCollector remembers which part failed first in time. Under FailFast
// that failure is the one that canceled its siblings, so Aggregate reports
// it ahead of the others. The zero value is ready to use.
type ErrorCollector struct {
	mu    sync.Mutex
	first *apperrors.WorkerError
}

// Record keeps err if it is the first worker failure seen. Errors that do not
// carry a WorkerError are ignored.
func (c *ErrorCollector) Record(err error) {
	var we apperrors.WorkerError
	if !errors.As(err, &we) {
		return
	}
	c.mu.Lock()
	if c.first == nil {
		c.first = &we
	}
	c.mu.Unlock()
}

// First returns the earliest recorded failure.
func (c *ErrorCollector) First() (apperrors.WorkerError, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.first == nil {
		return apperrors.WorkerError{}, false
	}
	return *c.first, true
}
