package job

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/state"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/testutil"
)

// compileOne compiles a single-stage pipeline and returns its Job and the
// reader of its output.
func compileOne(t *testing.T, def command.CallDefinition) (*command.Job, *stream.Reader) {
	t.Helper()
	var deps []*command.Job
	jobs, out, _, err := command.CompilePipeline(
		[]command.CallDefinition{def}, stream.Empty(), nil, command.CompileContext{}, &deps)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	return jobs[0], out
}

func TestExecute_AsyncJoinReturnsCommandError(t *testing.T) {
	sentinel := errors.New("boom")
	exec := NewExecutor(testutil.NewRecorder())
	j, _ := compileOne(t, testutil.Call(testutil.Failing("fail", sentinel)))

	res := exec.Execute(j, state.New("/"))
	require.True(t, res.Async())

	assert.Equal(t, sentinel, res.Join())
	assert.Equal(t, int64(1), exec.Spawned())
}

func TestExecute_AsyncJoinSuccess(t *testing.T) {
	exec := NewExecutor(testutil.NewRecorder())
	j, out := compileOne(t, testutil.Call(testutil.Numbers("numbers", 3)))

	res := exec.Execute(j, state.New("/"))

	in, err := out.Initialize()
	require.NoError(t, err)
	table, err := stream.Collect(in)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	assert.NoError(t, res.Join())
}

func TestExecute_PanicBecomesExecutionError(t *testing.T) {
	exec := NewExecutor(testutil.NewRecorder())
	j, _ := compileOne(t, testutil.Call(testutil.Panicking("explode", "kaboom")))

	res := exec.Execute(j, state.New("/"))
	err := res.Join()

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeExecution))
	assert.Contains(t, err.Error(), "error while waiting for command to finish")
}

func TestExecute_PanicClosesOutput(t *testing.T) {
	exec := NewExecutor(testutil.NewRecorder())
	j, out := compileOne(t, testutil.Call(testutil.Panicking("explode", "kaboom")))

	res := exec.Execute(j, state.New("/"))

	// The downstream reader must not hang even though the command never
	// initialized its output.
	in, err := out.Initialize()
	require.NoError(t, err)
	_, err = in.Recv()
	assert.ErrorIs(t, err, stream.ErrEndOfStream)

	assert.Error(t, res.Join())
}

func TestExecute_MutateNeverSpawns(t *testing.T) {
	exec := NewExecutor(testutil.NewRecorder())
	calls := 0
	counter := testutil.Counter("bump", &calls)
	st := state.New("/")

	const n = 5
	for i := 0; i < n; i++ {
		j, _ := compileOne(t, testutil.Call(counter))
		res := exec.Execute(j, st)
		assert.False(t, res.Async())
		assert.NoError(t, res.Join())
	}

	assert.Equal(t, n, calls)
	assert.Equal(t, int64(0), exec.Spawned())
}

func TestExecute_MutateErrorIsSync(t *testing.T) {
	sentinel := errs.Argument("bad variable")
	cmd := &command.Command{
		Name: "broken",
		Exec: command.ExecMutate,
		Mutate: func(*command.MutateContext) error {
			return sentinel
		},
	}
	exec := NewExecutor(testutil.NewRecorder())
	j, _ := compileOne(t, testutil.Call(cmd))

	res := exec.Execute(j, state.New("/"))

	assert.False(t, res.Async())
	assert.Equal(t, error(sentinel), res.Join())
}

func TestExecute_MutateClosesOutput(t *testing.T) {
	calls := 0
	exec := NewExecutor(testutil.NewRecorder())
	j, out := compileOne(t, testutil.Call(testutil.Counter("bump", &calls)))

	require.NoError(t, exec.Execute(j, state.New("/")).Join())

	in, err := out.Initialize()
	require.NoError(t, err)
	assert.Empty(t, in.Schema())
	_, err = in.Recv()
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
}

func TestExecute_CallIsSingleUse(t *testing.T) {
	exec := NewExecutor(testutil.NewRecorder())
	j, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))

	require.NoError(t, exec.Execute(j, state.New("/")).Join())

	again := &command.Job{Call: j.Call, Input: stream.Empty()}
	err := exec.Execute(again, state.New("/")).Join()
	assert.True(t, errs.Is(err, errs.CodeGeneric))
}

func TestExecute_AssignsJobIDs(t *testing.T) {
	t.Run("uuidv7 by default", func(t *testing.T) {
		exec := NewExecutor(testutil.NewRecorder())
		j, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))

		require.NoError(t, exec.Execute(j, state.New("/")).Join())

		id, err := uuid.Parse(j.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	})

	t.Run("custom generator", func(t *testing.T) {
		exec := NewExecutor(testutil.NewRecorder(), WithIDGenerator(NewSequenceGenerator("job")))
		first, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))
		second, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))

		require.NoError(t, exec.Execute(first, state.New("/")).Join())
		require.NoError(t, exec.Execute(second, state.New("/")).Join())

		assert.Equal(t, "job-1", first.ID)
		assert.Equal(t, "job-2", second.ID)
	})

	t.Run("preset id kept", func(t *testing.T) {
		exec := NewExecutor(testutil.NewRecorder())
		j, _ := compileOne(t, testutil.Call(testutil.Failing("fail", nil)))
		j.ID = "preset"

		require.NoError(t, exec.Execute(j, state.New("/")).Join())
		assert.Equal(t, "preset", j.ID)
	})
}

func TestResult_SyncJoinUnchanged(t *testing.T) {
	sentinel := errors.New("stored")

	assert.Equal(t, sentinel, syncResult(sentinel).Join())
	assert.NoError(t, syncResult(nil).Join())
}

func TestResult_JoinTwice(t *testing.T) {
	res := syncResult(nil)

	require.NoError(t, res.Join())
	err := res.Join()
	assert.True(t, errs.Is(err, errs.CodeGeneric))
}
