package domain

import "time"

// EmbeddingVector pairs one knowledge entry with its embedding. Order
// within a snapshot follows entry insertion order; similarity ties are
// broken by that order.
type EmbeddingVector struct {
	ID     string    `json:"id"`
	Values []float32 `json:"values"`
}

// EmbeddingSnapshot is the persisted semantic index. Validity is tied
// to the knowledge snapshot it was built from: a vector-count mismatch
// against the live entries forces a full rebuild.
type EmbeddingSnapshot struct {
	Vectors []EmbeddingVector `json:"vectors"`
	Dim     int               `json:"dim"`
	BuiltAt time.Time         `json:"built_at"`
}
