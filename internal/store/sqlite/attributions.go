package sqlite

import (
	"context"
	"fmt"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
)

// ReplaceSourceAttributions replaces every attribution row for a plant.
// The delete and inserts run in one transaction; on any failure nothing changes.
func (s *Store) ReplaceSourceAttributions(ctx context.Context, plantID string, attrs []domain.SourceAttribution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM source_attributions WHERE plant_id = ?`, plantID); err != nil {
		return fmt.Errorf("delete source_attributions: %w", err)
	}

	for _, a := range attrs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO source_attributions (id, plant_id, field_name, source_name, source_url, retrieved_at_ms, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			plantID,
			a.FieldName,
			a.SourceName,
			a.SourceURL,
			a.RetrievedAtEpochMs,
			a.Confidence,
		)
		if err != nil {
			return fmt.Errorf("insert source_attribution %s: %w", a.FieldName, err)
		}
	}

	return tx.Commit()
}

// ListSourceAttributions returns the attribution rows for a plant ordered by field name.
func (s *Store) ListSourceAttributions(ctx context.Context, plantID string) ([]domain.SourceAttribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plant_id, field_name, source_name, source_url, retrieved_at_ms, confidence
		FROM source_attributions
		WHERE plant_id = ?
		ORDER BY field_name`, plantID)
	if err != nil {
		return nil, fmt.Errorf("query source_attributions: %w", err)
	}
	defer rows.Close()

	var attrs []domain.SourceAttribution
	for rows.Next() {
		var a domain.SourceAttribution
		if err := rows.Scan(
			&a.ID,
			&a.PlantID,
			&a.FieldName,
			&a.SourceName,
			&a.SourceURL,
			&a.RetrievedAtEpochMs,
			&a.Confidence,
		); err != nil {
			return nil, fmt.Errorf("scan source_attribution: %w", err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}
