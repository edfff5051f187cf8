package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// PlantIndex wraps a Bleve index of plant documents.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle across Rebuild.
type PlantIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty means in-memory
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is bumped whenever the index mapping changes.
// A mismatch on startup forces a rebuild.
const mappingVersion = "plants-1"

// NewPlantIndex creates or opens a plant index.
// An existing index with a stale mapping version or that fails to open is
// removed and recreated; callers should reindex from the store afterwards.
func NewPlantIndex(opts Options) (*PlantIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		indexMapping, err := buildIndexMapping()
		if err != nil {
			return nil, fmt.Errorf("build mapping: %w", err)
		}
		index, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &PlantIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		indexMapping, err := buildIndexMapping()
		if err != nil {
			return nil, fmt.Errorf("build mapping: %w", err)
		}
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &PlantIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *PlantIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes or replaces a single document.
func (s *PlantIndex) IndexDocument(doc *PlantDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes documents in batches of 500.
func (s *PlantIndex) IndexDocuments(docs []*PlantDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteDocument removes a document from the index.
func (s *PlantIndex) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *PlantIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// MatchingIDs returns the IDs of every plant whose text contains a word
// starting with each of terms. Terms must already be folded with
// normalize.SearchTerms. No terms yields no IDs.
func (s *PlantIndex) MatchingIDs(ctx context.Context, terms []string) ([]string, error) {
	if len(terms) == 0 {
		return []string{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("doc count: %w", err)
	}
	if total == 0 {
		return []string{}, nil
	}

	conjuncts := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		q := bleve.NewPrefixQuery(term)
		q.SetField("text")
		conjuncts = append(conjuncts, q)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conjuncts...), int(total), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Rebuild drops the index and creates an empty one with the current mapping.
// It blocks every other operation until done.
func (s *PlantIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	indexMapping, err := buildIndexMapping()
	if err != nil {
		return fmt.Errorf("build mapping: %w", err)
	}

	var index bleve.Index
	if s.path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, indexMapping)
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
