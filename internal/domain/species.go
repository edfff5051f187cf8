package domain

import "time"

// TaxonomySummary is the higher classification of a species.
// Any rank may be empty when the lookup service does not report it.
type TaxonomySummary struct {
	Kingdom string `json:"kingdom,omitempty"`
	Phylum  string `json:"phylum,omitempty"`
	Order   string `json:"order,omitempty"`
	Family  string `json:"family,omitempty"`
	Genus   string `json:"genus,omitempty"`
}

// Merge returns t with every empty rank filled from fallback.
func (t TaxonomySummary) Merge(fallback TaxonomySummary) TaxonomySummary {
	return TaxonomySummary{
		Kingdom: firstNonEmpty(t.Kingdom, fallback.Kingdom),
		Phylum:  firstNonEmpty(t.Phylum, fallback.Phylum),
		Order:   firstNonEmpty(t.Order, fallback.Order),
		Family:  firstNonEmpty(t.Family, fallback.Family),
		Genus:   firstNonEmpty(t.Genus, fallback.Genus),
	}
}

// SpeciesMatchCandidate is a proposed species for a name the user typed or scanned.
type SpeciesMatchCandidate struct {
	UsageKey        int64           `json:"usage_key"`
	ScientificName  string          `json:"scientific_name"`
	Confidence      float64         `json:"confidence"` // 0..1
	TaxonomicStatus string          `json:"taxonomic_status,omitempty"`
	Rank            string          `json:"rank,omitempty"`
	Taxonomy        TaxonomySummary `json:"taxonomy"`
}

// FieldAttribution records where the value of one plant field came from.
type FieldAttribution struct {
	SourceName         string  `json:"source_name"`
	SourceURL          string  `json:"source_url"`
	RetrievedAtEpochMs int64   `json:"retrieved_at_epoch_ms"`
	Confidence         float64 `json:"confidence"`
}

// RetrievedAt returns the retrieval timestamp as a time.Time.
func (a FieldAttribution) RetrievedAt() time.Time {
	return time.UnixMilli(a.RetrievedAtEpochMs)
}

// Plant fields that autofill provides values for.
const (
	FieldBotanicalName = "botanicalName"
	FieldCommonName    = "commonName"
	FieldDescription   = "description"
	FieldNotes         = "notes"
)

// AutofillFields lists the plant fields an autofill result attributes, in a stable order.
var AutofillFields = []string{
	FieldBotanicalName,
	FieldCommonName,
	FieldDescription,
	FieldNotes,
}

// AutofillResult is the fully resolved data for a chosen candidate.
type AutofillResult struct {
	AcceptedScientificName string                      `json:"accepted_scientific_name"`
	Taxonomy               TaxonomySummary             `json:"taxonomy"`
	VernacularNames        []string                    `json:"vernacular_names"`
	Confidence             float64                     `json:"confidence"`
	SourceURL              string                      `json:"source_url"`
	RetrievedAtEpochMs     int64                       `json:"retrieved_at_epoch_ms"`
	Attributions           map[string]FieldAttribution `json:"attributions"`
}

// PreferredCommonName returns the first vernacular name, or "" when none are known.
func (r *AutofillResult) PreferredCommonName() string {
	if len(r.VernacularNames) == 0 {
		return ""
	}
	return r.VernacularNames[0]
}

// SourceAttribution is a persisted FieldAttribution for one field of one plant.
type SourceAttribution struct {
	ID                 string  `json:"id"`
	PlantID            string  `json:"plant_id"`
	FieldName          string  `json:"field_name"`
	SourceName         string  `json:"source_name"`
	SourceURL          string  `json:"source_url"`
	RetrievedAtEpochMs int64   `json:"retrieved_at_epoch_ms"`
	Confidence         float64 `json:"confidence"`
}

// Attribution converts the row back to its field-level form.
func (a *SourceAttribution) Attribution() FieldAttribution {
	return FieldAttribution{
		SourceName:         a.SourceName,
		SourceURL:          a.SourceURL,
		RetrievedAtEpochMs: a.RetrievedAtEpochMs,
		Confidence:         a.Confidence,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
