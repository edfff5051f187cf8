package service

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	domainerrors "github.com/seedcatalog/seedcatalog-server/internal/errors"
	"github.com/seedcatalog/seedcatalog-server/internal/gbif"
	"github.com/seedcatalog/seedcatalog-server/internal/id"
	"github.com/seedcatalog/seedcatalog-server/internal/metrics"
	"github.com/seedcatalog/seedcatalog-server/internal/normalize"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

// SpeciesLookup fetches raw payloads from the remote taxonomy service.
type SpeciesLookup interface {
	MatchByName(ctx context.Context, name string) ([]byte, error)
	FetchDetails(ctx context.Context, usageKey int64) ([]byte, error)
	FetchVernacularNames(ctx context.Context, usageKey int64) ([]byte, error)
}

// AttributionStore persists per-field source attributions.
type AttributionStore interface {
	ReplaceSourceAttributions(ctx context.Context, plantID string, attrs []domain.SourceAttribution) error
	ListSourceAttributions(ctx context.Context, plantID string) ([]domain.SourceAttribution, error)
}

// PlantNamer writes autofilled names onto a plant.
type PlantNamer interface {
	ApplySpeciesNames(ctx context.Context, plantID, botanicalName, commonName string) (*domain.Plant, error)
}

// AutofillObserver receives cache and lookup outcomes, typically for metrics.
type AutofillObserver interface {
	RecordCacheHit(family string)
	RecordCacheMiss(family string)
	RecordCacheReadError(family string)
	RecordCacheWriteError(family string)
	RecordUnavailable(operation string)
	RecordResolution(outcome string)
}

type nopAutofillObserver struct{}

func (nopAutofillObserver) RecordCacheHit(string)        {}
func (nopAutofillObserver) RecordCacheMiss(string)       {}
func (nopAutofillObserver) RecordCacheReadError(string)  {}
func (nopAutofillObserver) RecordCacheWriteError(string) {}
func (nopAutofillObserver) RecordUnavailable(string)     {}
func (nopAutofillObserver) RecordResolution(string)      {}

// DefaultCandidateTTL is how long offered candidates stay selectable by usage key alone.
const DefaultCandidateTTL = 30 * time.Minute

// AutofillService turns a plant name into species candidates and a chosen
// candidate into taxonomy, common names and provenance.
//
// Lookups go cache first. Remote failures never surface as errors: a failed
// match yields no candidates and a failed details fetch yields no result.
// Concurrent lookups for the same key share one remote call.
type AutofillService struct {
	lookup       SpeciesLookup
	cache        store.LookupCache
	attributions AttributionStore
	plants       PlantNamer
	observer     AutofillObserver

	offered *cache.Cache
	group   singleflight.Group
	now     func() time.Time
	logger  *slog.Logger
}

// NewAutofillService creates a new autofill service.
func NewAutofillService(
	lookup SpeciesLookup,
	lookupCache store.LookupCache,
	attributions AttributionStore,
	candidateTTL time.Duration,
	logger *slog.Logger,
) *AutofillService {
	if candidateTTL <= 0 {
		candidateTTL = DefaultCandidateTTL
	}
	return &AutofillService{
		lookup:       lookup,
		cache:        lookupCache,
		attributions: attributions,
		observer:     nopAutofillObserver{},
		offered:      cache.New(candidateTTL, candidateTTL*2),
		now:          time.Now,
		logger:       logger,
	}
}

// SetObserver installs an outcome observer.
func (s *AutofillService) SetObserver(o AutofillObserver) {
	if o == nil {
		o = nopAutofillObserver{}
	}
	s.observer = o
}

// SetPlantNamer sets the plant writer used by ApplyAutofill.
// Set after construction because the catalog service is built later.
func (s *AutofillService) SetPlantNamer(p PlantNamer) {
	s.plants = p
}

// FindCandidates returns species candidates for a name.
// The result is empty for a blank name, an unmatched name, or when the
// lookup is unavailable; otherwise it holds exactly one candidate.
func (s *AutofillService) FindCandidates(ctx context.Context, extractedName string) []domain.SpeciesMatchCandidate {
	query := normalize.QueryName(extractedName)
	if query == "" {
		return []domain.SpeciesMatchCandidate{}
	}

	match := shared(ctx, &s.group, "match:"+query, func(ctx context.Context) *gbif.NameMatch {
		return s.loadNameMatch(ctx, query)
	})
	if match == nil || !match.Found() {
		return []domain.SpeciesMatchCandidate{}
	}

	candidate := match.Candidate(query)
	s.offered.Set(candidateKey(candidate.UsageKey), candidate, cache.DefaultExpiration)

	return []domain.SpeciesMatchCandidate{candidate}
}

func (s *AutofillService) loadNameMatch(ctx context.Context, query string) *gbif.NameMatch {
	cached, err := s.cache.GetNameMatch(ctx, query)
	if err != nil {
		s.observer.RecordCacheReadError(metrics.FamilyNameMatch)
		s.logger.Warn("name match cache lookup failed", "error", err, "query", query)
	}

	if cached != nil {
		match, err := gbif.ParseNameMatch(cached.Payload)
		if err == nil {
			s.observer.RecordCacheHit(metrics.FamilyNameMatch)
			s.logger.Debug("cache hit for name match", "query", query, "retrieved_at", cached.RetrievedAt)
			return match
		}
		s.logger.Warn("cached name match unreadable, refetching", "error", err, "query", query)
	}
	s.observer.RecordCacheMiss(metrics.FamilyNameMatch)

	s.logger.Debug("fetching name match from GBIF", "query", query)
	payload, err := s.lookup.MatchByName(ctx, query)
	if err != nil {
		s.observer.RecordUnavailable("match")
		s.logger.Warn("name match lookup unavailable", "error", err, "query", query)
		return nil
	}

	match, err := gbif.ParseNameMatch(payload)
	if err != nil {
		s.observer.RecordUnavailable("match")
		s.logger.Warn("name match response unreadable", "error", err, "query", query)
		return nil
	}

	if err := s.cache.PutNameMatch(ctx, query, payload); err != nil {
		s.observer.RecordCacheWriteError(metrics.FamilyNameMatch)
		s.logger.Warn("failed to cache name match", "error", err, "query", query)
	}

	return match
}

// OfferedCandidate returns a candidate previously returned by FindCandidates,
// if it has not expired.
func (s *AutofillService) OfferedCandidate(usageKey int64) (domain.SpeciesMatchCandidate, bool) {
	v, ok := s.offered.Get(candidateKey(usageKey))
	if !ok {
		return domain.SpeciesMatchCandidate{}, false
	}
	c, ok := v.(domain.SpeciesMatchCandidate)
	return c, ok
}

// CandidateForKey returns the offered candidate for usageKey, or a bare
// candidate carrying only the key when none was offered recently.
func (s *AutofillService) CandidateForKey(usageKey int64) domain.SpeciesMatchCandidate {
	if c, ok := s.OfferedCandidate(usageKey); ok {
		return c
	}
	return domain.SpeciesMatchCandidate{UsageKey: usageKey}
}

// speciesRecord is a parsed species details entry.
type speciesRecord struct {
	details         *gbif.SpeciesDetails
	vernacularNames []string
	retrievedAtMs   int64
}

// ResolveSelection builds the full autofill result for a candidate.
// It returns nil when the species details cannot be obtained.
func (s *AutofillService) ResolveSelection(ctx context.Context, candidate domain.SpeciesMatchCandidate) *domain.AutofillResult {
	if candidate.UsageKey <= 0 {
		s.observer.RecordResolution("invalid")
		return nil
	}

	key := candidate.UsageKey
	record := shared(ctx, &s.group, "species:"+strconv.FormatInt(key, 10), func(ctx context.Context) *speciesRecord {
		return s.loadSpecies(ctx, key)
	})
	if record == nil {
		s.observer.RecordResolution("unavailable")
		return nil
	}

	acceptedName := record.details.ScientificName
	if acceptedName == "" {
		acceptedName = candidate.ScientificName
	}

	names := record.vernacularNames
	if names == nil {
		names = []string{}
	}

	sourceURL := gbif.SourceURL(key)
	attribution := domain.FieldAttribution{
		SourceName:         gbif.SourceName,
		SourceURL:          sourceURL,
		RetrievedAtEpochMs: record.retrievedAtMs,
		Confidence:         candidate.Confidence,
	}
	attributions := make(map[string]domain.FieldAttribution, len(domain.AutofillFields))
	for _, field := range domain.AutofillFields {
		attributions[field] = attribution
	}

	s.observer.RecordResolution("resolved")

	return &domain.AutofillResult{
		AcceptedScientificName: acceptedName,
		Taxonomy:               record.details.Taxonomy.Merge(candidate.Taxonomy),
		VernacularNames:        names,
		Confidence:             candidate.Confidence,
		SourceURL:              sourceURL,
		RetrievedAtEpochMs:     record.retrievedAtMs,
		Attributions:           attributions,
	}
}

func (s *AutofillService) loadSpecies(ctx context.Context, usageKey int64) *speciesRecord {
	cached, err := s.cache.GetSpeciesDetails(ctx, usageKey)
	if err != nil {
		s.observer.RecordCacheReadError(metrics.FamilySpeciesDetails)
		s.logger.Warn("species cache lookup failed", "error", err, "usage_key", usageKey)
	}

	if cached != nil {
		details, err := gbif.ParseSpeciesDetails(cached.DetailsPayload)
		if err == nil {
			s.observer.RecordCacheHit(metrics.FamilySpeciesDetails)
			s.logger.Debug("cache hit for species", "usage_key", usageKey, "retrieved_at", cached.RetrievedAt)
			return &speciesRecord{
				details:         details,
				vernacularNames: s.vernacularNames(cached.VernacularPayload, usageKey),
				retrievedAtMs:   cached.RetrievedAtEpochMs(),
			}
		}
		s.logger.Warn("cached species details unreadable, refetching", "error", err, "usage_key", usageKey)
	}
	s.observer.RecordCacheMiss(metrics.FamilySpeciesDetails)

	s.logger.Debug("fetching species from GBIF", "usage_key", usageKey)
	detailsPayload, err := s.lookup.FetchDetails(ctx, usageKey)
	if err != nil {
		s.observer.RecordUnavailable("details")
		s.logger.Warn("species details lookup unavailable", "error", err, "usage_key", usageKey)
		return nil
	}
	details, err := gbif.ParseSpeciesDetails(detailsPayload)
	if err != nil {
		s.observer.RecordUnavailable("details")
		s.logger.Warn("species details response unreadable", "error", err, "usage_key", usageKey)
		return nil
	}

	// Vernacular names are enrichment only; a failure here degrades to none.
	vernacularPayload, err := s.lookup.FetchVernacularNames(ctx, usageKey)
	if err != nil {
		s.observer.RecordUnavailable("vernacular")
		s.logger.Warn("vernacular names lookup unavailable", "error", err, "usage_key", usageKey)
		vernacularPayload = gbif.EmptyVernacularPayload
	}
	names, err := gbif.ParseVernacularNames(vernacularPayload)
	if err != nil {
		s.observer.RecordUnavailable("vernacular")
		s.logger.Warn("vernacular names response unreadable", "error", err, "usage_key", usageKey)
		vernacularPayload = gbif.EmptyVernacularPayload
		names = nil
	}

	retrievedAt := s.now()
	if err := s.cache.PutSpeciesDetails(ctx, usageKey, detailsPayload, vernacularPayload); err != nil {
		s.observer.RecordCacheWriteError(metrics.FamilySpeciesDetails)
		s.logger.Warn("failed to cache species details", "error", err, "usage_key", usageKey)
	}

	return &speciesRecord{
		details:         details,
		vernacularNames: names,
		retrievedAtMs:   retrievedAt.UnixMilli(),
	}
}

func (s *AutofillService) vernacularNames(payload []byte, usageKey int64) []string {
	names, err := gbif.ParseVernacularNames(payload)
	if err != nil {
		s.logger.Warn("cached vernacular names unreadable", "error", err, "usage_key", usageKey)
		return nil
	}
	return names
}

// SaveAttributions replaces every stored attribution for a plant with attrs.
// The replacement is atomic: on failure the previous set is kept and a
// PERSISTENCE error is returned.
func (s *AutofillService) SaveAttributions(ctx context.Context, plantID string, attrs map[string]domain.FieldAttribution) error {
	plantID = strings.TrimSpace(plantID)
	if plantID == "" {
		return domainerrors.Validation("plant id is required")
	}

	fields := make([]string, 0, len(attrs))
	for field := range attrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	rows := make([]domain.SourceAttribution, 0, len(fields))
	for _, field := range fields {
		a := attrs[field]
		rows = append(rows, domain.SourceAttribution{
			ID:                 id.NewAttributionID(),
			PlantID:            plantID,
			FieldName:          field,
			SourceName:         a.SourceName,
			SourceURL:          a.SourceURL,
			RetrievedAtEpochMs: a.RetrievedAtEpochMs,
			Confidence:         a.Confidence,
		})
	}

	if err := s.attributions.ReplaceSourceAttributions(ctx, plantID, rows); err != nil {
		s.logger.Error("failed to save source attributions", "error", err, "plant_id", plantID)
		return domainerrors.Persistence(err, "failed to save source attributions")
	}

	s.logger.Debug("saved source attributions", "plant_id", plantID, "count", len(rows))
	return nil
}

// ListAttributions returns the stored attributions for a plant.
func (s *AutofillService) ListAttributions(ctx context.Context, plantID string) ([]domain.SourceAttribution, error) {
	attrs, err := s.attributions.ListSourceAttributions(ctx, plantID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list source attributions")
	}
	if attrs == nil {
		attrs = []domain.SourceAttribution{}
	}
	return attrs, nil
}

// ApplyResult is the outcome of applying a candidate to a plant.
type ApplyResult struct {
	Plant  *domain.Plant          `json:"plant"`
	Result *domain.AutofillResult `json:"result"`
}

// ApplyAutofill resolves a candidate, writes the accepted scientific name and
// preferred common name onto the plant, and records the attributions.
// The common name is left alone when no vernacular name is known.
func (s *AutofillService) ApplyAutofill(ctx context.Context, plantID string, candidate domain.SpeciesMatchCandidate) (*ApplyResult, error) {
	if s.plants == nil {
		return nil, domainerrors.Internal("plant writer not configured")
	}

	result := s.ResolveSelection(ctx, candidate)
	if result == nil {
		return nil, domainerrors.Unavailable("species details are unavailable right now")
	}

	plant, err := s.plants.ApplySpeciesNames(ctx, plantID, result.AcceptedScientificName, result.PreferredCommonName())
	if err != nil {
		return nil, err
	}

	if err := s.SaveAttributions(ctx, plant.ID, result.Attributions); err != nil {
		return nil, err
	}

	s.logger.Info("applied species autofill",
		"plant_id", plant.ID,
		"usage_key", candidate.UsageKey,
		"botanical_name", plant.BotanicalName,
	)

	return &ApplyResult{Plant: plant, Result: result}, nil
}

func candidateKey(usageKey int64) string {
	return strconv.FormatInt(usageKey, 10)
}

// shared runs fn once per key among concurrent callers. The work runs on a
// context detached from the caller's cancellation so a departing caller does
// not abort a lookup others are waiting on; each caller still returns as
// soon as its own ctx is done.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) *T) *T {
	if ctx.Err() != nil {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached), nil
	})

	select {
	case <-ctx.Done():
		return nil
	case r := <-ch:
		v, _ := r.Val.(*T)
		return v
	}
}
