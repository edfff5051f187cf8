// Package id generates identifiers for catalog records.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for catalog record IDs.
const (
	PrefixPlant     = "plant"
	PrefixPacketLot = "lot"
	PrefixPhoto     = "photo"
	PrefixNote      = "note"
)

// Generate creates a prefixed NanoID, e.g. "plant-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewAttributionID returns a random UUID for a source attribution row.
// Attribution rows are replaced wholesale, so they carry no prefix.
func NewAttributionID() string {
	return uuid.NewString()
}
