// Package command holds command descriptors, the write-once command
// registry, and the compiler that turns a CallDefinition into an executable
// Call.
//
// Compilation never runs anything. Arguments that are nested sub-pipelines
// are compiled into Jobs and appended to a caller-supplied dependency list;
// the orchestrator decides when they run. The owning Call receives the
// reader end of the sub-pipeline's output stream.
//
// The Registry is an explicit object. It is populated at startup with
// Declare, then Sealed; after that it is read-only for the life of the
// process.
package command
