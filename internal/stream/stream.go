package stream

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/crush/internal/value"
)

// DefaultCapacity is the buffer size used when Pipe is given capacity <= 0.
const DefaultCapacity = 128

var (
	// ErrClosed is returned by Send once the reader has been closed.
	ErrClosed = errors.New("stream closed: consumer gone")

	// ErrEndOfStream is returned by Recv once the writer has been closed and
	// every buffered row has been delivered.
	ErrEndOfStream = errors.New("end of stream")

	// ErrAlreadyInitialized is returned by a second Initialize on an endpoint.
	ErrAlreadyInitialized = errors.New("stream already initialized")

	// ErrSchemaMismatch is returned by Send for a row that violates the
	// committed schema.
	ErrSchemaMismatch = errors.New("row does not match stream schema")
)

// pipe is the state shared by one Writer/Reader pair.
type pipe struct {
	rows chan value.Row
	done chan struct{} // closed when the reader goes away

	mu        sync.Mutex
	schema    value.Schema
	committed bool
	ready     chan struct{} // closed on commit or on writer close
	readyShut bool

	writerClosed atomic.Bool
	rowsOnce     sync.Once
	doneOnce     sync.Once
}

// Pipe creates an unopened stream with the given buffer capacity.
func Pipe(capacity int) (*Writer, *Reader) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &pipe{
		rows:  make(chan value.Row, capacity),
		done:  make(chan struct{}),
		ready: make(chan struct{}),
	}
	return &Writer{p: p}, &Reader{p: p}
}

// Empty returns a reader whose writer has already gone away without
// committing a schema. Initializing it yields an empty, ended stream.
// Used as the input of the first stage of a pipeline.
func Empty() *Reader {
	w, r := Pipe(1)
	w.Close()
	return r
}

// commit records the schema and wakes the reader.
// Returns false if the writer already committed.
func (p *pipe) commit(schema value.Schema) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.committed {
		return false
	}
	p.schema = append(value.Schema(nil), schema...)
	p.committed = true
	if !p.readyShut {
		p.readyShut = true
		close(p.ready)
	}
	return true
}

// closeWriter ends the stream from the producer side.
func (p *pipe) closeWriter() {
	p.writerClosed.Store(true)

	p.mu.Lock()
	if !p.readyShut {
		p.readyShut = true
		close(p.ready)
	}
	p.mu.Unlock()

	p.rowsOnce.Do(func() { close(p.rows) })
}

// closeReader signals the producer that nobody is listening anymore.
func (p *pipe) closeReader() {
	p.doneOnce.Do(func() { close(p.done) })
}

// Writer is the unopened producer endpoint.
type Writer struct {
	p           *pipe
	initialized atomic.Bool
}

// Initialize commits the schema and returns the sending endpoint.
// Calling it twice returns ErrAlreadyInitialized.
func (w *Writer) Initialize(schema value.Schema) (*OutputStream, error) {
	if !w.initialized.CompareAndSwap(false, true) || !w.p.commit(schema) {
		return nil, ErrAlreadyInitialized
	}
	return &OutputStream{p: w.p, schema: w.p.schema}, nil
}

// Close ends the stream. If no schema was committed, the reader sees an
// empty, ended stream. Idempotent.
func (w *Writer) Close() {
	w.p.closeWriter()
}

// Reader is the unopened consumer endpoint.
type Reader struct {
	p           *pipe
	initialized atomic.Bool
}

// Initialize blocks until the writer has committed its schema and returns
// the receiving endpoint. If the writer closed without committing, the
// returned stream has an empty schema and is already ended.
// Calling it twice returns ErrAlreadyInitialized.
func (r *Reader) Initialize() (*InputStream, error) {
	if !r.initialized.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}

	<-r.p.ready

	r.p.mu.Lock()
	schema := r.p.schema
	r.p.mu.Unlock()

	return &InputStream{p: r.p, schema: schema}, nil
}

// Close tells the writer that the consumer is gone. Idempotent.
func (r *Reader) Close() {
	r.p.closeReader()
}

// OutputStream is the initialized sending endpoint.
type OutputStream struct {
	p      *pipe
	schema value.Schema
}

// Schema returns the committed schema.
func (o *OutputStream) Schema() value.Schema {
	return o.schema
}

// Send enqueues a row, blocking while the buffer is full.
//
// Returns ErrClosed once the reader is gone; producers must stop on it.
// Returns an error wrapping ErrSchemaMismatch if the row violates the schema.
func (o *OutputStream) Send(row value.Row) error {
	if err := o.schema.Check(row); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if o.p.writerClosed.Load() {
		return ErrClosed
	}

	// Check for a departed reader first so that a send after Close never
	// lands in a buffer with free space.
	select {
	case <-o.p.done:
		return ErrClosed
	default:
	}

	select {
	case o.p.rows <- row:
		return nil
	case <-o.p.done:
		return ErrClosed
	}
}

// Close ends the stream from the producer side. Idempotent.
func (o *OutputStream) Close() {
	o.p.closeWriter()
}

// InputStream is the initialized receiving endpoint.
type InputStream struct {
	p      *pipe
	schema value.Schema
}

// Schema returns the committed schema.
func (i *InputStream) Schema() value.Schema {
	return i.schema
}

// Recv blocks until a row is available. Returns ErrEndOfStream once the
// writer is closed and the buffer is drained.
func (i *InputStream) Recv() (value.Row, error) {
	row, ok := <-i.p.rows
	if !ok {
		return value.Row{}, ErrEndOfStream
	}
	return row, nil
}

// Close tells the writer that the consumer is gone. Idempotent.
func (i *InputStream) Close() {
	i.p.closeReader()
}
