// Package job executes compiled Calls and orchestrates whole pipelines.
//
// ARCHITECTURE:
//
// Two execution disciplines, chosen per command at declaration time:
//
//   - Run: the Executor spawns one goroutine per Job. The goroutine owns the
//     Job's input and output endpoints exclusively and closes both when the
//     command returns. The command's error is captured and only observed by
//     Join. A panic inside the goroutine is converted by Join into an
//     execution error; it never reaches the caller.
//   - Mutate: the Executor calls the command synchronously on the caller's
//     goroutine with the interpreter State. No goroutine is spawned and the
//     Executor adds no locking.
//
// The Runner is the orchestrator. It compiles every stage (and every nested
// sub-pipeline) before any row flows, then launches dependency Jobs and stage
// Jobs while holding its state lock, so Mutate executions and compile-time
// state reads are serialized (single-writer discipline). It then drains the
// terminal stream into a Sink and joins every Result exactly once.
//
// Cancellation is cooperative only: a consumer that stops reading closes its
// input, and the producer's next Send fails.
package job
