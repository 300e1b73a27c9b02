package job

import (
	"sync/atomic"

	"github.com/roach88/crush/internal/errs"
)

// Result is the joinable outcome of executing a Job: either an async handle
// to a spawned goroutine or an already-computed sync result.
type Result struct {
	async    bool
	done     chan struct{}
	err      error
	panicked bool
	joined   atomic.Bool
}

func asyncResult() *Result {
	return &Result{async: true, done: make(chan struct{})}
}

func syncResult(err error) *Result {
	return &Result{err: err}
}

// Async reports whether the Result belongs to a spawned goroutine.
func (r *Result) Async() bool {
	return r.async
}

// Join waits for the Job and returns its error.
//
// For async results Join blocks until the goroutine finishes. The command's
// own error is returned unchanged; a panic becomes an execution error. For
// sync results the stored error is returned unchanged. A Result can be
// joined once; later calls return a generic error.
func (r *Result) Join() error {
	if !r.joined.CompareAndSwap(false, true) {
		return errs.Generic("job result already joined")
	}
	if r.async {
		<-r.done
		if r.panicked {
			return errs.Execution("error while waiting for command to finish")
		}
	}
	return r.err
}
