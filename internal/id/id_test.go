package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixPlant)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixPlant, PrefixPacketLot, PrefixPhoto, PrefixNote} {
		t.Run(prefix, func(t *testing.T) {
			id := MustGenerate(prefix)

			require.True(t, strings.HasPrefix(id, prefix+"-"))
			// Default NanoID length is 21.
			assert.Len(t, strings.TrimPrefix(id, prefix+"-"), 21)
		})
	}
}

func TestNewAttributionID(t *testing.T) {
	a := NewAttributionID()
	b := NewAttributionID()

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
