package store

import (
	"context"
	"time"
)

// CachedNameMatch is a stored /species/match response.
type CachedNameMatch struct {
	Query       string    `json:"query"`
	Payload     []byte    `json:"payload"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// CachedSpeciesDetails is a stored species record with its vernacular names.
type CachedSpeciesDetails struct {
	UsageKey          int64     `json:"usage_key"`
	DetailsPayload    []byte    `json:"details_payload"`
	VernacularPayload []byte    `json:"vernacular_payload"`
	RetrievedAt       time.Time `json:"retrieved_at"`
}

// RetrievedAtEpochMs returns the retrieval time in Unix milliseconds.
func (c *CachedSpeciesDetails) RetrievedAtEpochMs() int64 {
	return c.RetrievedAt.UnixMilli()
}

// LookupCache persists raw taxonomy lookup payloads.
// Entries never expire. Put overwrites any previous entry for the key and
// stamps it with the current time. Get returns nil, nil on a miss.
type LookupCache interface {
	GetNameMatch(ctx context.Context, query string) (*CachedNameMatch, error)
	PutNameMatch(ctx context.Context, query string, payload []byte) error
	GetSpeciesDetails(ctx context.Context, usageKey int64) (*CachedSpeciesDetails, error)
	PutSpeciesDetails(ctx context.Context, usageKey int64, details, vernacular []byte) error
}

// CacheBackend is a LookupCache that can also be inspected and emptied.
// Both the SQLite catalog and the Badger store implement it.
type CacheBackend interface {
	LookupCache
	LookupCacheStats(ctx context.Context) (CacheStats, error)
	ClearLookupCache(ctx context.Context) error
	Ping(ctx context.Context) error
}
