package gbif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameMatch(t *testing.T) {
	m, err := ParseNameMatch(loadFixture(t, "match_tomato.json"))
	require.NoError(t, err)
	require.True(t, m.Found())

	c := m.Candidate("tomato")
	assert.Equal(t, int64(2930137), c.UsageKey)
	assert.Equal(t, "Solanum lycopersicum L.", c.ScientificName)
	assert.InDelta(t, 0.98, c.Confidence, 1e-9)
	assert.Equal(t, "ACCEPTED", c.TaxonomicStatus)
	assert.Equal(t, "SPECIES", c.Rank)
	assert.Equal(t, "Plantae", c.Taxonomy.Kingdom)
	assert.Equal(t, "Tracheophyta", c.Taxonomy.Phylum)
	assert.Equal(t, "Solanales", c.Taxonomy.Order)
	assert.Equal(t, "Solanaceae", c.Taxonomy.Family)
	assert.Equal(t, "Solanum", c.Taxonomy.Genus)
}

func TestParseNameMatch_NoUsageKey(t *testing.T) {
	m, err := ParseNameMatch(loadFixture(t, "match_none.json"))
	require.NoError(t, err)
	assert.False(t, m.Found())

	m, err = ParseNameMatch([]byte(`{"usageKey":0,"scientificName":"X"}`))
	require.NoError(t, err)
	assert.False(t, m.Found())
}

func TestParseNameMatch_ScientificNameFallback(t *testing.T) {
	m, err := ParseNameMatch([]byte(`{"usageKey":12,"confidence":80}`))
	require.NoError(t, err)

	c := m.Candidate("Basil")
	assert.Equal(t, "Basil", c.ScientificName)
	assert.InDelta(t, 0.8, c.Confidence, 1e-9)
}

func TestParseNameMatch_Malformed(t *testing.T) {
	for _, payload := range []string{"", "   ", "not json", `{"usageKey":"abc"}`} {
		_, err := ParseNameMatch([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformed, "payload %q", payload)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{97, 0.97},
		{100, 1},
		{250, 1},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeConfidence(tt.in), 1e-9, "in=%v", tt.in)
	}
}

func TestParseSpeciesDetails(t *testing.T) {
	d, err := ParseSpeciesDetails(loadFixture(t, "species_tomato.json"))
	require.NoError(t, err)

	assert.Equal(t, int64(2930137), d.Key)
	assert.Equal(t, "Solanum lycopersicum L.", d.ScientificName)
	assert.Equal(t, "Solanum lycopersicum", d.CanonicalName)
	assert.Equal(t, "L.", d.Authorship)
	assert.Equal(t, "ACCEPTED", d.TaxonomicStatus)
	assert.Equal(t, "Solanaceae", d.Taxonomy.Family)
}

func TestParseSpeciesDetails_Partial(t *testing.T) {
	d, err := ParseSpeciesDetails([]byte(`{"key":5,"family":"  Lamiaceae "}`))
	require.NoError(t, err)
	assert.Empty(t, d.ScientificName)
	assert.Equal(t, "Lamiaceae", d.Taxonomy.Family)
	assert.Empty(t, d.Taxonomy.Genus)
}

func TestParseVernacularNames(t *testing.T) {
	names, err := ParseVernacularNames(loadFixture(t, "vernacular_tomato.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tomato", "tomato", "Tomate"}, names)
}

func TestParseVernacularNames_Empty(t *testing.T) {
	names, err := ParseVernacularNames(EmptyVernacularPayload)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = ParseVernacularNames([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = ParseVernacularNames([]byte(`[`))
	assert.ErrorIs(t, err, ErrMalformed)
}
