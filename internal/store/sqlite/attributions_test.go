package sqlite

import (
	"context"
	"testing"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
)

func makeAttributions(plantID string, fields []string, url string) []domain.SourceAttribution {
	attrs := make([]domain.SourceAttribution, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, domain.SourceAttribution{
			ID:                 plantID + "-" + f + "-" + url,
			PlantID:            plantID,
			FieldName:          f,
			SourceName:         "GBIF Species API",
			SourceURL:          url,
			RetrievedAtEpochMs: 1700000000000,
			Confidence:         0.97,
		})
	}
	return attrs
}

func TestReplaceSourceAttributions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	first := makeAttributions("plant-1", domain.AutofillFields, "https://api.gbif.org/v1/species/1")
	if err := s.ReplaceSourceAttributions(ctx, "plant-1", first); err != nil {
		t.Fatalf("ReplaceSourceAttributions: %v", err)
	}

	got, err := s.ListSourceAttributions(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListSourceAttributions: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	if got[0].FieldName != domain.FieldBotanicalName {
		t.Errorf("first row ordered by field name: got %q", got[0].FieldName)
	}
	if got[0].Confidence != 0.97 || got[0].RetrievedAtEpochMs != 1700000000000 {
		t.Errorf("row values not preserved: %+v", got[0])
	}

	// Replacing with a smaller set removes the rest.
	second := makeAttributions("plant-1", []string{domain.FieldCommonName}, "https://api.gbif.org/v1/species/2")
	if err := s.ReplaceSourceAttributions(ctx, "plant-1", second); err != nil {
		t.Fatalf("ReplaceSourceAttributions: %v", err)
	}

	got, err = s.ListSourceAttributions(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListSourceAttributions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row after replace, got %d", len(got))
	}
	if got[0].SourceURL != "https://api.gbif.org/v1/species/2" {
		t.Errorf("SourceURL: got %q", got[0].SourceURL)
	}
}

func TestReplaceSourceAttributions_Empty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	attrs := makeAttributions("plant-1", domain.AutofillFields, "u")
	if err := s.ReplaceSourceAttributions(ctx, "plant-1", attrs); err != nil {
		t.Fatalf("ReplaceSourceAttributions: %v", err)
	}
	if err := s.ReplaceSourceAttributions(ctx, "plant-1", nil); err != nil {
		t.Fatalf("ReplaceSourceAttributions(nil): %v", err)
	}

	got, err := s.ListSourceAttributions(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListSourceAttributions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}

func TestReplaceSourceAttributions_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	original := makeAttributions("plant-1", domain.AutofillFields, "old")
	if err := s.ReplaceSourceAttributions(ctx, "plant-1", original); err != nil {
		t.Fatalf("ReplaceSourceAttributions: %v", err)
	}

	// Two rows for the same field violate the unique constraint mid-transaction.
	bad := makeAttributions("plant-1", []string{domain.FieldNotes}, "new")
	dup := bad[0]
	dup.ID = "another-id"
	bad = append(bad, dup)

	if err := s.ReplaceSourceAttributions(ctx, "plant-1", bad); err == nil {
		t.Fatal("expected error from duplicate field rows")
	}

	got, err := s.ListSourceAttributions(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListSourceAttributions: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected original 4 rows after rollback, got %d", len(got))
	}
	for _, a := range got {
		if a.SourceURL != "old" {
			t.Errorf("row %s changed: %q", a.FieldName, a.SourceURL)
		}
	}
}

func TestSourceAttributions_CascadeOnPlantDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	if err := s.ReplaceSourceAttributions(ctx, "plant-1", makeAttributions("plant-1", domain.AutofillFields, "u")); err != nil {
		t.Fatalf("ReplaceSourceAttributions: %v", err)
	}
	if err := s.DeletePlant(ctx, "plant-1"); err != nil {
		t.Fatalf("DeletePlant: %v", err)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM source_attributions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected cascade delete, %d rows remain", n)
	}
}
