package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues ULIDs for every row the engine creates. Lexicographic
// ordering keeps posting group IDs roughly insertion-ordered in indexes.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
