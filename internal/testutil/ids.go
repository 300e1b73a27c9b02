package testutil

// FixedIDGenerator generates the same job ID every time.
//
// This keeps debug logs byte-identical across runs of the same scenario, so
// they can be compared against golden files.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed job ID generator.
//
// If id is empty, Generate() returns "test-job".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-job"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed job ID.
//
// Implements job.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
