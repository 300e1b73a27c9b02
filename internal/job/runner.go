package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/state"
	"github.com/roach88/crush/internal/stream"
)

// Sink consumes the terminal stream of a pipeline. Returning early is
// allowed; the Runner closes the stream afterwards, which stops the
// producers upstream.
type Sink func(in *stream.InputStream) error

// Discard drains and drops every row.
func Discard(in *stream.InputStream) error {
	_, err := stream.Collect(in)
	return err
}

// Runner compiles and executes pipelines against one interpreter State.
//
// Thread-safety: Run may be called concurrently. Compilation and job launch
// (which includes every Mutate execution) hold the Runner's lock; draining
// and joining do not.
type Runner struct {
	mu       sync.Mutex
	executor *Executor
	state    *state.State
	capacity int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCapacity sets the buffer size of every stream the Runner creates.
func WithCapacity(n int) RunnerOption {
	return func(r *Runner) {
		r.capacity = n
	}
}

// NewRunner creates a Runner.
func NewRunner(executor *Executor, st *state.State, opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: executor,
		state:    st,
		capacity: stream.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the interpreter state the Runner mutates.
func (r *Runner) State() *state.State {
	return r.state
}

// Executor returns the underlying Executor.
func (r *Runner) Executor() *Executor {
	return r.executor
}

// Run compiles defs, executes every Job, feeds the terminal stream to sink
// and joins everything.
//
// A compile error is returned before any Job starts. Otherwise every Job is
// joined exactly once and all job errors are returned together, each
// prefixed with its command name.
func (r *Runner) Run(defs []command.CallDefinition, sink Sink) error {
	if len(defs) == 0 {
		return nil
	}
	if sink == nil {
		sink = Discard
	}

	launched, out, err := r.launch(defs)
	if err != nil {
		return err
	}

	var errList []error

	in, err := out.Initialize()
	if err != nil {
		errList = append(errList, err)
	} else {
		if err := sink(in); err != nil {
			errList = append(errList, err)
		}
		in.Close()
	}
	out.Close()

	for _, l := range launched {
		if err := l.result.Join(); err != nil {
			errList = append(errList, fmt.Errorf("%s: %w", l.job.Call.Name, err))
		}
	}

	return errors.Join(errList...)
}

// Collect runs defs and materializes the terminal stream.
func (r *Runner) Collect(defs []command.CallDefinition) (*stream.Table, error) {
	var table *stream.Table
	err := r.Run(defs, func(in *stream.InputStream) error {
		var err error
		table, err = stream.Collect(in)
		return err
	})
	if table == nil {
		table = stream.NewTable(nil, nil)
	}
	return table, err
}

// launched pairs a Job with its Result.
type launched struct {
	job    *command.Job
	result *Result
}

// launch compiles the pipeline and starts every Job under the state lock.
// Dependency Jobs start before the stages, so sub-pipeline producers are
// running by the time a consumer reads from them.
func (r *Runner) launch(defs []command.CallDefinition) ([]launched, *stream.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deps []*command.Job
	cc := command.CompileContext{Scope: r.state, Capacity: r.capacity}

	stages, out, _, err := command.CompilePipeline(defs, stream.Empty(), nil, cc, &deps)
	if err != nil {
		// Nothing ran; release the dependency streams that were built.
		for _, j := range deps {
			closeEndpoints(j)
		}
		slog.Debug("pipeline compile failed", "error", err)
		return nil, nil, err
	}

	order := r.start(append(deps, stages...))
	slog.Debug("pipeline launched", "stages", len(stages), "dependencies", len(deps))
	return order, out, nil
}

// start executes jobs in order. Results are keyed by Job identity so a Job
// listed twice runs once; Execute consumes its Call. The caller holds r.mu.
func (r *Runner) start(jobs []*command.Job) []launched {
	inflight := make(map[*command.Job]*Result, len(jobs))
	order := make([]launched, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := inflight[j]; ok {
			slog.Warn("job listed twice", "command", j.Call.Name)
			continue
		}
		res := r.executor.Execute(j, r.state)
		inflight[j] = res
		order = append(order, launched{job: j, result: res})
	}
	return order
}
