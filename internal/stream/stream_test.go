package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/value"
)

var testSchema = value.Schema{value.Column("n", value.TypeInteger)}

func intRow(n int) value.Row {
	return value.NewRow(value.Integer(n))
}

// openPipe creates and initializes both ends of a stream.
func openPipe(t *testing.T, capacity int) (*OutputStream, *InputStream) {
	t.Helper()
	w, r := Pipe(capacity)
	out, err := w.Initialize(testSchema)
	require.NoError(t, err)
	in, err := r.Initialize()
	require.NoError(t, err)
	return out, in
}

func TestPipe_FIFO(t *testing.T) {
	out, in := openPipe(t, 4)

	go func() {
		for i := 0; i < 100; i++ {
			if err := out.Send(intRow(i)); err != nil {
				return
			}
		}
		out.Close()
	}()

	for i := 0; i < 100; i++ {
		row, err := in.Recv()
		require.NoError(t, err)
		assert.Equal(t, value.Integer(i), row.Cells[0])
	}

	_, err := in.Recv()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestPipe_RecvDrainsBufferAfterWriterClose(t *testing.T) {
	out, in := openPipe(t, 4)

	require.NoError(t, out.Send(intRow(1)))
	require.NoError(t, out.Send(intRow(2)))
	out.Close()

	row, err := in.Recv()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(1), row.Cells[0])

	row, err = in.Recv()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(2), row.Cells[0])

	_, err = in.Recv()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestPipe_Backpressure(t *testing.T) {
	out, in := openPipe(t, 1)

	require.NoError(t, out.Send(intRow(1)))

	sent := make(chan error, 1)
	go func() {
		sent <- out.Send(intRow(2))
	}()

	select {
	case <-sent:
		t.Fatal("send on a full stream must block")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := in.Recv()
	require.NoError(t, err)

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("send did not resume after recv")
	}
}

func TestPipe_SendFailsAfterReaderClose(t *testing.T) {
	out, in := openPipe(t, 8)

	in.Close()

	err := out.Send(intRow(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPipe_BlockedSendUnblocksOnReaderClose(t *testing.T) {
	out, in := openPipe(t, 1)
	require.NoError(t, out.Send(intRow(1)))

	sent := make(chan error, 1)
	go func() {
		sent <- out.Send(intRow(2))
	}()

	in.Close()

	select {
	case err := <-sent:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked send did not observe reader close")
	}
}

func TestPipe_InitializeTwice(t *testing.T) {
	w, r := Pipe(1)

	_, err := w.Initialize(testSchema)
	require.NoError(t, err)
	_, err = w.Initialize(testSchema)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	_, err = r.Initialize()
	require.NoError(t, err)
	_, err = r.Initialize()
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestPipe_ReaderInitializeWaitsForSchema(t *testing.T) {
	w, r := Pipe(1)

	got := make(chan value.Schema, 1)
	go func() {
		in, err := r.Initialize()
		if err != nil {
			close(got)
			return
		}
		got <- in.Schema()
	}()

	select {
	case <-got:
		t.Fatal("reader initialized before the writer committed")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := w.Initialize(testSchema)
	require.NoError(t, err)

	select {
	case schema := <-got:
		assert.True(t, testSchema.Equal(schema))
	case <-time.After(time.Second):
		t.Fatal("reader did not observe committed schema")
	}
}

func TestPipe_SchemaMismatch(t *testing.T) {
	out, _ := openPipe(t, 1)

	err := out.Send(value.NewRow(value.Text("not a number")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestEmpty(t *testing.T) {
	in, err := Empty().Initialize()
	require.NoError(t, err)
	assert.Empty(t, in.Schema())

	_, err = in.Recv()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestPipe_WriterClosedWithoutSchema(t *testing.T) {
	w, r := Pipe(1)
	w.Close()
	w.Close() // idempotent

	in, err := r.Initialize()
	require.NoError(t, err)
	assert.Empty(t, in.Schema())
	_, err = in.Recv()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestCollectAndSendAll(t *testing.T) {
	out, in := openPipe(t, 8)
	for i := 1; i <= 3; i++ {
		require.NoError(t, out.Send(intRow(i)))
	}
	out.Close()

	table, err := Collect(in)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.True(t, testSchema.Equal(table.Schema()))

	out2, in2 := openPipe(t, 8)
	require.NoError(t, SendAll(table, out2))
	out2.Close()

	again, err := Collect(in2)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), again.Rows())
}

func TestSendAll_StopsQuietlyWhenConsumerGone(t *testing.T) {
	rows := []value.Row{intRow(1), intRow(2)}
	out, in := openPipe(t, 1)
	in.Close()

	err := SendAll(NewTable(testSchema, rows), out)
	assert.NoError(t, err)
}
