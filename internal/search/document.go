// Package search provides full-text plant search using Bleve.
package search

import (
	"strings"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/normalize"
)

// PlantDocument is the indexed form of a plant.
// Text holds every searchable field, folded to lowercase ASCII-ish terms
// so queries match regardless of case and diacritics.
type PlantDocument struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	UpdatedAt int64  `json:"updated_at"` // Unix millis
}

// PlantToDocument builds the index document for a plant.
func PlantToDocument(p *domain.Plant) *PlantDocument {
	fields := []string{
		p.BotanicalName,
		p.CommonName,
		p.Variety,
		p.PlantType,
		p.Description,
		p.MedicinalUses,
		p.CulinaryUses,
		p.GrowingInstructions,
		p.Notes,
	}

	var terms []string
	for _, f := range fields {
		terms = append(terms, normalize.SearchTerms(f)...)
	}

	return &PlantDocument{
		ID:        p.ID,
		Text:      strings.Join(terms, " "),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *PlantDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"text":       d.Text,
		"updated_at": d.UpdatedAt,
	}
}
