package job

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/state"
)

// Executor runs Jobs.
//
// The spawn counter is instrumentation: it counts goroutines started for Run
// Jobs and never changes for Mutate Jobs.
type Executor struct {
	reporter command.Reporter
	ids      IDGenerator
	spawned  atomic.Int64
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithIDGenerator overrides the UUIDv7 job ID generator.
func WithIDGenerator(g IDGenerator) ExecutorOption {
	return func(e *Executor) {
		e.ids = g
	}
}

// NewExecutor creates an Executor that hands reporter to every Run command.
func NewExecutor(reporter command.Reporter, opts ...ExecutorOption) *Executor {
	e := &Executor{
		reporter: reporter,
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spawned returns the number of goroutines started so far.
func (e *Executor) Spawned() int64 {
	return e.spawned.Load()
}

// Execute consumes the Job's Call and returns a joinable Result.
//
// Run Jobs are spawned on their own goroutine, which takes ownership of both
// endpoints. Mutate Jobs execute synchronously against st; the caller must
// guarantee no other access to st is in flight.
func (e *Executor) Execute(job *command.Job, st *state.State) *Result {
	call := job.Call
	if err := call.Consume(); err != nil {
		closeEndpoints(job)
		return syncResult(err)
	}
	if job.ID == "" {
		job.ID = e.ids.Generate()
	}

	switch call.Exec {
	case command.ExecRun:
		return e.spawn(job)
	case command.ExecMutate:
		return e.mutate(job, st)
	default:
		closeEndpoints(job)
		return syncResult(errs.Generic("%s: unknown exec kind %s", call.Name, call.Exec))
	}
}

// spawn starts a Run Job on a dedicated goroutine.
func (e *Executor) spawn(job *command.Job) *Result {
	call := job.Call
	res := asyncResult()
	e.spawned.Add(1)

	slog.Debug("job spawned", "job_id", job.ID, "command", call.Name)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				res.panicked = true
				slog.Error("job panicked", "job_id", job.ID, "command", call.Name, "panic", fmt.Sprint(p))
			}
			closeEndpoints(job)
			close(res.done)
		}()

		res.err = call.Command().Run(&command.RunContext{
			JobID:     job.ID,
			Name:      call.Name,
			InputType: call.InputType,
			Arguments: call.Arguments,
			Config:    call.Config,
			Input:     job.Input,
			Output:    job.Output,
			Reporter:  e.reporter,
		})

		slog.Debug("job finished", "job_id", job.ID, "command", call.Name, "error", res.err)
	}()

	return res
}

// mutate runs a Mutate Job on the caller's goroutine.
func (e *Executor) mutate(job *command.Job, st *state.State) (res *Result) {
	call := job.Call
	defer closeEndpoints(job)
	defer func() {
		if p := recover(); p != nil {
			slog.Error("mutation panicked", "job_id", job.ID, "command", call.Name, "panic", fmt.Sprint(p))
			res = syncResult(errs.Execution("%s: command failed unexpectedly", call.Name))
		}
	}()

	slog.Debug("job mutating", "job_id", job.ID, "command", call.Name)

	err := call.Command().Mutate(&command.MutateContext{
		JobID:     job.ID,
		Name:      call.Name,
		InputType: call.InputType,
		Arguments: call.Arguments,
		Config:    call.Config,
		State:     st,
	})
	return syncResult(err)
}

// closeEndpoints releases every stream a Job holds. Closing an input tells
// its producer to stop; closing the output ends the downstream stream.
// Stream arguments count as inputs.
func closeEndpoints(job *command.Job) {
	if job.Input != nil {
		job.Input.Close()
	}
	if job.Output != nil {
		job.Output.Close()
	}
	if job.Call == nil {
		return
	}
	for _, arg := range job.Call.Arguments {
		if arg.Stream != nil {
			arg.Stream.Close()
		}
	}
}
