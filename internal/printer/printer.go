// Package printer renders pipeline output and reports per-row errors.
package printer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// textBatch is the number of rows aligned together in text output. Each
// batch is flushed as soon as it is complete, so long-running pipelines
// show rows before they end.
const textBatch = 64

// Printer writes rows to an output writer and non-fatal job errors to an
// error writer.
//
// Printer implements command.Reporter. JobError may be called from any job
// goroutine; Render is called once per pipeline from the orchestrator.
//
// Thread-safety: all methods are safe for concurrent use.
type Printer struct {
	out    io.Writer
	format string
	batch  int
	outMu  sync.Mutex

	// errMu is separate from outMu: jobs report errors while Render is
	// still draining their rows.
	errOut io.Writer
	errors int
	errMu  sync.Mutex
}

// New creates a Printer. An unknown format falls back to text.
func New(out, errOut io.Writer, format string) *Printer {
	if format != FormatJSON {
		format = FormatText
	}
	return &Printer{out: out, errOut: errOut, format: format, batch: textBatch}
}

// JobError reports a non-fatal error. It never alters control flow.
func (p *Printer) JobError(err error) {
	if err == nil {
		return
	}
	slog.Warn("row skipped", "error", err)

	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.errors++
	fmt.Fprintf(p.errOut, "Error: %v\n", err)
}

// Errors returns the number of errors reported so far.
func (p *Printer) Errors() int {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.errors
}

// Sink renders the terminal stream of a pipeline. It has the shape of
// job.Sink.
func (p *Printer) Sink(in *stream.InputStream) error {
	return p.Render(in)
}

// Render drains r and writes every row in the configured format.
//
// Text output is an aligned table with a header line of column names,
// aligned per batch of rows; an empty schema prints nothing. JSON output is one object per row.
func (p *Printer) Render(r stream.Readable) error {
	p.outMu.Lock()
	defer p.outMu.Unlock()

	if p.format == FormatJSON {
		return p.renderJSON(r)
	}
	return p.renderText(r)
}

func (p *Printer) renderText(r stream.Readable) error {
	schema := r.Schema()
	if len(schema) == 0 {
		return drain(r)
	}

	tw := tabwriter.NewWriter(p.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(schema.Names(), "\t"))

	cells := make([]string, len(schema))
	pending := 0
	for {
		row, err := r.Recv()
		if errors.Is(err, stream.ErrEndOfStream) {
			break
		}
		if err != nil {
			tw.Flush()
			return err
		}
		for i, c := range row.Cells {
			cells[i] = value.Format(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))

		pending++
		if pending == p.batch {
			if err := tw.Flush(); err != nil {
				return err
			}
			pending = 0
		}
	}
	return tw.Flush()
}

func (p *Printer) renderJSON(r stream.Readable) error {
	schema := r.Schema()
	for {
		row, err := r.Recv()
		if errors.Is(err, stream.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}
		line, err := value.MarshalRowJSON(schema, row)
		if err != nil {
			return fmt.Errorf("render row: %w", err)
		}
		if _, err := fmt.Fprintf(p.out, "%s\n", line); err != nil {
			return err
		}
	}
}

// drain consumes rows that have no columns to show.
func drain(r stream.Readable) error {
	for {
		_, err := r.Recv()
		if errors.Is(err, stream.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
