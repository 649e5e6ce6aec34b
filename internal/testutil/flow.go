package testutil

// FixedRunID returns the same run id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out, which suits scenarios that run the engine an arbitrary
// number of times and compare against golden output.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator.
// If id is empty, Generate() returns "test-run".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
