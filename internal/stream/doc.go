// Package stream implements the typed, bounded channels that connect
// pipeline stages.
//
// A stream is created unopened with Pipe, which returns a Writer and a Reader.
// The producer commits the schema exactly once with Writer.Initialize; the
// consumer obtains the committed schema with Reader.Initialize, which blocks
// until the producer has committed (or gone away).
//
// OWNERSHIP:
// Each endpoint is owned by exactly one execution unit at a time. There is
// never more than one concurrent writer or reader, so endpoints carry no
// locking of their own beyond what the close protocol needs.
//
// BACKPRESSURE AND CANCELLATION:
//   - Send blocks while the buffer is full
//   - Recv blocks while the buffer is empty and the writer is alive
//   - Closing the reader makes the writer's next Send fail with ErrClosed,
//     which producers treat as a request to stop, not as a fault
//   - Closing the writer makes Recv fail with ErrEndOfStream once drained
//
// Rows are delivered in the order they were sent. No batching, no timeouts.
package stream
