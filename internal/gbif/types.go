package gbif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
)

// EmptyVernacularPayload stands in for a vernacular lookup that returned nothing.
var EmptyVernacularPayload = []byte(`{"results":[]}`)

// NameMatch is the typed form of a /species/match response.
type NameMatch struct {
	UsageKey        int64
	ScientificName  string
	Confidence      float64 // normalized to 0..1
	TaxonomicStatus string
	Rank            string
	MatchType       string
	Taxonomy        domain.TaxonomySummary
}

// Found reports whether GBIF matched the name to a taxon.
func (m *NameMatch) Found() bool {
	return m.UsageKey != 0
}

// Candidate converts the match to a candidate. query is used as the
// scientific name when GBIF did not report one.
func (m *NameMatch) Candidate(query string) domain.SpeciesMatchCandidate {
	name := m.ScientificName
	if name == "" {
		name = query
	}
	return domain.SpeciesMatchCandidate{
		UsageKey:        m.UsageKey,
		ScientificName:  name,
		Confidence:      m.Confidence,
		TaxonomicStatus: m.TaxonomicStatus,
		Rank:            m.Rank,
		Taxonomy:        m.Taxonomy,
	}
}

// SpeciesDetails is the typed form of a /species/{key} response.
type SpeciesDetails struct {
	Key             int64
	ScientificName  string
	CanonicalName   string
	Authorship      string
	TaxonomicStatus string
	Rank            string
	Taxonomy        domain.TaxonomySummary
}

// Raw API response types (internal)

type rawTaxonomy struct {
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
}

func (r rawTaxonomy) summary() domain.TaxonomySummary {
	return domain.TaxonomySummary{
		Kingdom: strings.TrimSpace(r.Kingdom),
		Phylum:  strings.TrimSpace(r.Phylum),
		Order:   strings.TrimSpace(r.Order),
		Family:  strings.TrimSpace(r.Family),
		Genus:   strings.TrimSpace(r.Genus),
	}
}

type rawMatch struct {
	rawTaxonomy
	UsageKey       int64   `json:"usageKey"`
	ScientificName string  `json:"scientificName"`
	Confidence     float64 `json:"confidence"`
	Status         string  `json:"status"`
	Rank           string  `json:"rank"`
	MatchType      string  `json:"matchType"`
}

type rawSpecies struct {
	rawTaxonomy
	Key             int64  `json:"key"`
	ScientificName  string `json:"scientificName"`
	CanonicalName   string `json:"canonicalName"`
	Authorship      string `json:"authorship"`
	TaxonomicStatus string `json:"taxonomicStatus"`
	Rank            string `json:"rank"`
}

type rawVernacularPage struct {
	Results []rawVernacular `json:"results"`
}

type rawVernacular struct {
	VernacularName string `json:"vernacularName"`
	Language       string `json:"language"`
	Source         string `json:"source"`
}

// ParseNameMatch parses a /species/match payload.
// A payload without a usage key parses fine and reports Found() == false.
func ParseNameMatch(payload []byte) (*NameMatch, error) {
	var raw rawMatch
	if err := decode(payload, &raw); err != nil {
		return nil, err
	}

	return &NameMatch{
		UsageKey:        raw.UsageKey,
		ScientificName:  strings.TrimSpace(raw.ScientificName),
		Confidence:      normalizeConfidence(raw.Confidence),
		TaxonomicStatus: raw.Status,
		Rank:            raw.Rank,
		MatchType:       raw.MatchType,
		Taxonomy:        raw.summary(),
	}, nil
}

// ParseSpeciesDetails parses a /species/{key} payload.
func ParseSpeciesDetails(payload []byte) (*SpeciesDetails, error) {
	var raw rawSpecies
	if err := decode(payload, &raw); err != nil {
		return nil, err
	}

	return &SpeciesDetails{
		Key:             raw.Key,
		ScientificName:  strings.TrimSpace(raw.ScientificName),
		CanonicalName:   strings.TrimSpace(raw.CanonicalName),
		Authorship:      strings.TrimSpace(raw.Authorship),
		TaxonomicStatus: raw.TaxonomicStatus,
		Rank:            raw.Rank,
		Taxonomy:        raw.summary(),
	}, nil
}

// ParseVernacularNames parses a /species/{key}/vernacularNames payload.
// Names are trimmed, blanks dropped, and exact duplicates removed keeping
// the first occurrence. Comparison is case-sensitive.
func ParseVernacularNames(payload []byte) ([]string, error) {
	var raw rawVernacularPage
	if err := decode(payload, &raw); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw.Results))
	seen := make(map[string]struct{}, len(raw.Results))
	for _, r := range raw.Results {
		name := strings.TrimSpace(r.VernacularName)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func decode(payload []byte, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// normalizeConfidence maps GBIF's 0..100 percentage onto 0..1.
// Values already in 0..1 are kept as they are.
func normalizeConfidence(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
