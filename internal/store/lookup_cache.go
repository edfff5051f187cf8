package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const (
	nameMatchPrefix      = "gbif:match:"
	speciesDetailsPrefix = "gbif:species:"
)

var _ LookupCache = (*Store)(nil)

func nameMatchKey(query string) []byte {
	return []byte(nameMatchPrefix + query)
}

func speciesDetailsKey(usageKey int64) []byte {
	return []byte(speciesDetailsPrefix + strconv.FormatInt(usageKey, 10))
}

// GetNameMatch retrieves a cached name match.
// Returns nil, nil if not found.
func (s *Store) GetNameMatch(ctx context.Context, query string) (*CachedNameMatch, error) {
	var cached CachedNameMatch
	found, err := s.getJSON(ctx, nameMatchKey(query), &cached)
	if err != nil {
		return nil, fmt.Errorf("get cached name match: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cached, nil
}

// PutNameMatch stores a name match payload, replacing any previous entry.
func (s *Store) PutNameMatch(ctx context.Context, query string, payload []byte) error {
	cached := CachedNameMatch{
		Query:       query,
		Payload:     payload,
		RetrievedAt: s.now().UTC(),
	}
	if err := s.setJSON(ctx, nameMatchKey(query), cached); err != nil {
		return fmt.Errorf("put cached name match: %w", err)
	}
	return nil
}

// GetSpeciesDetails retrieves cached species payloads.
// Returns nil, nil if not found.
func (s *Store) GetSpeciesDetails(ctx context.Context, usageKey int64) (*CachedSpeciesDetails, error) {
	var cached CachedSpeciesDetails
	found, err := s.getJSON(ctx, speciesDetailsKey(usageKey), &cached)
	if err != nil {
		return nil, fmt.Errorf("get cached species details: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cached, nil
}

// PutSpeciesDetails stores species payloads, replacing any previous entry.
func (s *Store) PutSpeciesDetails(ctx context.Context, usageKey int64, details, vernacular []byte) error {
	cached := CachedSpeciesDetails{
		UsageKey:          usageKey,
		DetailsPayload:    details,
		VernacularPayload: vernacular,
		RetrievedAt:       s.now().UTC(),
	}
	if err := s.setJSON(ctx, speciesDetailsKey(usageKey), cached); err != nil {
		return fmt.Errorf("put cached species details: %w", err)
	}
	return nil
}

// CacheStats counts entries per cache family.
type CacheStats struct {
	NameMatches    int `json:"name_matches"`
	SpeciesDetails int `json:"species_details"`
}

// LookupCacheStats counts the cached entries.
func (s *Store) LookupCacheStats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	err := s.scan(ctx, []byte("gbif:"), false, func(key, _ []byte) error {
		switch {
		case bytes.HasPrefix(key, []byte(nameMatchPrefix)):
			stats.NameMatches++
		case bytes.HasPrefix(key, []byte(speciesDetailsPrefix)):
			stats.SpeciesDetails++
		}
		return nil
	})
	return stats, err
}

// EachCacheEntry calls fn for every cached entry with its raw key and
// stored value. Iteration stops at the first error fn returns.
func (s *Store) EachCacheEntry(ctx context.Context, fn func(key string, value []byte) error) error {
	return s.scan(ctx, []byte("gbif:"), true, func(key, value []byte) error {
		return fn(string(key), value)
	})
}

// ClearLookupCache removes every cached entry.
func (s *Store) ClearLookupCache(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.DropPrefix([]byte(nameMatchPrefix), []byte(speciesDetailsPrefix))
}

func (s *Store) getJSON(ctx context.Context, key []byte, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key []byte, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *Store) scan(ctx context.Context, prefix []byte, withValues bool, fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = withValues
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			key := item.KeyCopy(nil)

			var value []byte
			if withValues {
				v, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				value = v
			}

			if err := fn(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
