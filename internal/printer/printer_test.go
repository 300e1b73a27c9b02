package printer

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

var schema = value.Schema{
	value.Column("name", value.TypeText),
	value.Column("size", value.TypeInteger),
}

func table() *stream.Table {
	return stream.NewTable(schema, []value.Row{
		value.NewRow(value.Text("a.go"), value.Integer(120)),
		value.NewRow(value.Text("readme.md"), value.Integer(7)),
	})
}

func TestRender_Text(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, FormatText)

	require.NoError(t, p.Render(table()))

	want := "" +
		"name       size\n" +
		"a.go       120\n" +
		"readme.md  7\n"
	assert.Equal(t, want, out.String())
}

func TestRender_TextEmptySchema(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, FormatText)

	require.NoError(t, p.Render(stream.NewTable(nil, nil)))
	assert.Empty(t, out.String())
}

func TestRender_TextHeaderOnly(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, FormatText)

	require.NoError(t, p.Render(stream.NewTable(schema, nil)))
	assert.Equal(t, "name  size\n", out.String())
}

// lockedBuffer lets a test read output while Render is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRender_TextFlushesCompleteBatches(t *testing.T) {
	out := &lockedBuffer{}
	p := New(out, &bytes.Buffer{}, FormatText)
	p.batch = 2

	w, r := stream.Pipe(4)
	send, err := w.Initialize(schema)
	require.NoError(t, err)
	in, err := r.Initialize()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Render(in) }()

	require.NoError(t, send.Send(value.NewRow(value.Text("a.go"), value.Integer(120))))
	require.NoError(t, send.Send(value.NewRow(value.Text("readme.md"), value.Integer(7))))

	// The first batch is visible while the stream is still open.
	assert.Eventually(t, func() bool {
		return out.String() == "name       size\na.go       120\nreadme.md  7\n"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, send.Send(value.NewRow(value.Text("x"), value.Integer(1))))
	send.Close()
	require.NoError(t, <-done)

	assert.Equal(t, "name       size\na.go       120\nreadme.md  7\nx  1\n", out.String())
}

func TestRender_JSON(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, FormatJSON)

	require.NoError(t, p.Render(table()))

	want := `{"name":"a.go","size":120}` + "\n" +
		`{"name":"readme.md","size":7}` + "\n"
	assert.Equal(t, want, out.String())
}

func TestNew_UnknownFormatFallsBackToText(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, "yaml")

	require.NoError(t, p.Render(stream.NewTable(schema, nil)))
	assert.Equal(t, "name  size\n", out.String())
}

func TestJobError(t *testing.T) {
	var errOut bytes.Buffer
	p := New(&bytes.Buffer{}, &errOut, FormatText)

	p.JobError(errs.Comparison("cell types can't be compared"))
	p.JobError(nil)
	p.JobError(errors.New("invalid match"))

	assert.Equal(t, 2, p.Errors())
	assert.Equal(t, "Error: cell types can't be compared\nError: invalid match\n", errOut.String())
}

func TestJobError_Concurrent(t *testing.T) {
	p := New(&bytes.Buffer{}, &bytes.Buffer{}, FormatText)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.JobError(errors.New("row"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, p.Errors())
}
