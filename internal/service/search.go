package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/normalize"
	"github.com/seedcatalog/seedcatalog-server/internal/search"
)

// PlantLister lists plants for reindexing.
type PlantLister interface {
	ListPlants(ctx context.Context, f domain.PlantFilter, ids []string) ([]*domain.Plant, error)
}

// SearchService keeps the plant index in step with the catalog store and
// runs free-text queries against it.
type SearchService struct {
	index  *search.PlantIndex
	plants PlantLister
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.PlantIndex, plants PlantLister, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		plants: plants,
		logger: logger,
	}
}

// IndexPlant indexes or re-indexes a single plant.
func (s *SearchService) IndexPlant(_ context.Context, p *domain.Plant) error {
	if err := s.index.IndexDocument(search.PlantToDocument(p)); err != nil {
		return fmt.Errorf("index plant: %w", err)
	}
	s.logger.Debug("indexed plant", "id", p.ID, "name", p.DisplayName())
	return nil
}

// RemovePlant drops a plant from the index.
func (s *SearchService) RemovePlant(_ context.Context, plantID string) error {
	if err := s.index.DeleteDocument(plantID); err != nil {
		return fmt.Errorf("delete plant document: %w", err)
	}
	return nil
}

// MatchingPlantIDs returns the IDs of plants matching a free-text query.
// It returns nil when the query has no usable terms, meaning "no restriction".
func (s *SearchService) MatchingPlantIDs(ctx context.Context, query string) ([]string, error) {
	terms := normalize.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	return s.index.MatchingIDs(ctx, terms)
}

// ReindexAll rebuilds the index from every plant in the store.
func (s *SearchService) ReindexAll(ctx context.Context) (int, error) {
	plants, err := s.plants.ListPlants(ctx, domain.PlantFilter{}, nil)
	if err != nil {
		return 0, fmt.Errorf("list plants: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	docs := make([]*search.PlantDocument, 0, len(plants))
	for _, p := range plants {
		docs = append(docs, search.PlantToDocument(p))
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index plants: %w", err)
	}

	s.logger.Info("reindexed plants", "count", len(docs))
	return len(docs), nil
}

// DocumentCount reports how many plants are indexed.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
