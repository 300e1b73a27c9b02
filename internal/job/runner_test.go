package job

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/state"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/testutil"
	"github.com/roach88/crush/internal/value"
)

func newTestRunner(opts ...RunnerOption) *Runner {
	exec := NewExecutor(testutil.NewRecorder(), WithIDGenerator(NewSequenceGenerator("job")))
	return NewRunner(exec, state.New("/"), opts...)
}

// fromStream emits the rows of its first stream argument and ignores its
// input. With drain=false it returns without reading anything.
func fromStream(name string, drain bool) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			streams := ctx.Arguments.Streams()
			if len(streams) != 1 {
				return command.Binding{}, errs.Argument("expected one stream argument")
			}
			return command.Binding{Output: streams[0].StreamType}, nil
		},
		Run: func(ctx *command.RunContext) error {
			if !drain {
				return nil
			}
			src, err := ctx.Arguments.Streams()[0].Stream.Initialize()
			if err != nil {
				return err
			}
			out, err := ctx.Output.Initialize(src.Schema())
			if err != nil {
				return err
			}
			return stream.SendAll(src, out)
		},
	}
}

func TestRunner_Pipeline(t *testing.T) {
	r := newTestRunner()

	table, err := r.Collect([]command.CallDefinition{
		testutil.Call(testutil.Numbers("numbers", 5)),
		testutil.Call(testutil.Passthrough("pass")),
		testutil.Call(testutil.Passthrough("pass")),
	})

	require.NoError(t, err)
	assert.Equal(t, testutil.NumbersSchema, table.Schema())
	require.Equal(t, 5, table.Len())
	for i, row := range table.Rows() {
		assert.Equal(t, value.NewRow(value.Integer(i+1)), row)
	}
	assert.Equal(t, int64(3), r.Executor().Spawned())
}

func TestRunner_CompileErrorRunsNothing(t *testing.T) {
	r := newTestRunner()

	err := r.Run([]command.CallDefinition{
		testutil.Call(testutil.Numbers("numbers", 5)),
		testutil.Call(testutil.Rejecting("nope")),
	}, nil)

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeArgument))
	assert.Contains(t, err.Error(), "stage 2")
	assert.Equal(t, int64(0), r.Executor().Spawned())
}

func TestRunner_JobErrorsJoined(t *testing.T) {
	sentinel := errors.New("disk on fire")
	r := newTestRunner()

	err := r.Run([]command.CallDefinition{
		testutil.Call(testutil.Numbers("numbers", 5)),
		testutil.Call(testutil.Failing("fail", sentinel)),
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "fail: disk on fire")
}

func TestRunner_EarlySinkStopsProducers(t *testing.T) {
	r := newTestRunner(WithCapacity(1))

	done := make(chan error, 1)
	go func() {
		done <- r.Run([]command.CallDefinition{
			testutil.Call(testutil.Numbers("numbers", 1_000_000)),
			testutil.Call(testutil.Passthrough("pass")),
		}, func(in *stream.InputStream) error {
			_, err := in.Recv()
			return err
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after the sink returned")
	}
}

func TestRunner_SubPipeline(t *testing.T) {
	r := newTestRunner()

	table, err := r.Collect([]command.CallDefinition{
		testutil.Call(fromStream("from", true),
			command.SubPipeline("", []command.CallDefinition{
				testutil.Call(testutil.Numbers("numbers", 4)),
			})),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	// One goroutine for the dependency, one for the stage.
	assert.Equal(t, int64(2), r.Executor().Spawned())
}

func TestRunner_UnreadSubPipelineDoesNotHang(t *testing.T) {
	r := newTestRunner(WithCapacity(1))

	done := make(chan error, 1)
	go func() {
		done <- r.Run([]command.CallDefinition{
			testutil.Call(fromStream("ignore", false),
				command.SubPipeline("", []command.CallDefinition{
					testutil.Call(testutil.Numbers("numbers", 1_000_000)),
				})),
		}, nil)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dependency job was never released")
	}
}

func TestRunner_MutateSeesState(t *testing.T) {
	r := newTestRunner()
	set := &command.Command{
		Name: "mark",
		Exec: command.ExecMutate,
		Mutate: func(ctx *command.MutateContext) error {
			return ctx.State.Let("marked", value.Bool(true))
		},
	}

	require.NoError(t, r.Run([]command.CallDefinition{testutil.Call(set)}, nil))

	v, ok := r.State().Lookup("marked")
	require.True(t, ok)
	assert.Equal(t, value.Bool(true), v)
	assert.Equal(t, int64(0), r.Executor().Spawned())
}

func TestRunner_EmptyPipeline(t *testing.T) {
	r := newTestRunner()

	assert.NoError(t, r.Run(nil, nil))
}

func TestRunner_StartRunsRepeatedJobOnce(t *testing.T) {
	r := newTestRunner()
	j, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))
	other, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))

	r.mu.Lock()
	order := r.start([]*command.Job{j, other, j})
	r.mu.Unlock()

	require.Len(t, order, 2)
	assert.Same(t, j, order[0].job)
	assert.Same(t, other, order[1].job)
	for _, l := range order {
		assert.NoError(t, l.result.Join())
	}
	assert.Equal(t, int64(2), r.Executor().Spawned())
}
