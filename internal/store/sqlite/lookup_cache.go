package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

var _ store.LookupCache = (*Store)(nil)

// GetNameMatch retrieves a cached /species/match payload by exact query.
// Returns nil, nil if not found.
func (s *Store) GetNameMatch(ctx context.Context, query string) (*store.CachedNameMatch, error) {
	var (
		payload     string
		retrievedAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT response_json, retrieved_at_ms FROM gbif_name_match_cache WHERE query_name = ?`,
		query).Scan(&payload, &retrievedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached name match: %w", err)
	}

	return &store.CachedNameMatch{
		Query:       query,
		Payload:     []byte(payload),
		RetrievedAt: time.UnixMilli(retrievedAt).UTC(),
	}, nil
}

// PutNameMatch stores a /species/match payload, replacing any previous row.
func (s *Store) PutNameMatch(ctx context.Context, query string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO gbif_name_match_cache (query_name, response_json, retrieved_at_ms) VALUES (?, ?, ?)`,
		query, string(payload), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put cached name match: %w", err)
	}
	return nil
}

// GetSpeciesDetails retrieves cached species and vernacular payloads.
// Returns nil, nil if not found.
func (s *Store) GetSpeciesDetails(ctx context.Context, usageKey int64) (*store.CachedSpeciesDetails, error) {
	var (
		details     string
		vernacular  string
		retrievedAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT response_json, vernacular_json, retrieved_at_ms FROM gbif_species_details_cache WHERE usage_key = ?`,
		usageKey).Scan(&details, &vernacular, &retrievedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached species details: %w", err)
	}

	return &store.CachedSpeciesDetails{
		UsageKey:          usageKey,
		DetailsPayload:    []byte(details),
		VernacularPayload: []byte(vernacular),
		RetrievedAt:       time.UnixMilli(retrievedAt).UTC(),
	}, nil
}

// PutSpeciesDetails stores species and vernacular payloads, replacing any previous row.
func (s *Store) PutSpeciesDetails(ctx context.Context, usageKey int64, details, vernacular []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO gbif_species_details_cache (usage_key, response_json, vernacular_json, retrieved_at_ms) VALUES (?, ?, ?, ?)`,
		usageKey, string(details), string(vernacular), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put cached species details: %w", err)
	}
	return nil
}

// LookupCacheStats counts the cached rows in each family.
func (s *Store) LookupCacheStats(ctx context.Context) (store.CacheStats, error) {
	var stats store.CacheStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM gbif_name_match_cache),
			(SELECT COUNT(*) FROM gbif_species_details_cache)`).
		Scan(&stats.NameMatches, &stats.SpeciesDetails)
	if err != nil {
		return store.CacheStats{}, fmt.Errorf("count lookup cache: %w", err)
	}
	return stats, nil
}

// ClearLookupCache deletes every cached lookup row in one transaction.
func (s *Store) ClearLookupCache(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gbif_name_match_cache`); err != nil {
		return fmt.Errorf("clear name match cache: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gbif_species_details_cache`); err != nil {
		return fmt.Errorf("clear species details cache: %w", err)
	}

	return tx.Commit()
}
