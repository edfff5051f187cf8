package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

func (s *Server) registerPlantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlants",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants",
		Summary:     "List plants",
		Description: "Lists plants, optionally filtered by a free-text query and column filters",
		Tags:        []string{"Plants"},
	}, s.handleListPlants)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPlant",
		Method:        http.MethodPost,
		Path:          "/api/v1/plants",
		Summary:       "Create plant",
		Description:   "Creates a plant. A botanical or common name is required.",
		Tags:          []string{"Plants"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePlant)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlantFilterOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/filter-options",
		Summary:     "Plant filter options",
		Description: "Returns the distinct values present for each plant filter",
		Tags:        []string{"Plants"},
	}, s.handleFilterOptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlant",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/{id}",
		Summary:     "Get plant",
		Description: "Returns a plant with its packet lots, notes and attributions",
		Tags:        []string{"Plants"},
	}, s.handleGetPlant)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePlant",
		Method:      http.MethodPut,
		Path:        "/api/v1/plants/{id}",
		Summary:     "Update plant",
		Description: "Replaces the editable fields of a plant",
		Tags:        []string{"Plants"},
	}, s.handleUpdatePlant)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/plants/{id}",
		Summary:     "Delete plant",
		Description: "Deletes a plant with its packet lots, photos, notes and attributions",
		Tags:        []string{"Plants"},
	}, s.handleDeletePlant)
}

// === DTOs ===

// ListPlantsInput contains parameters for listing plants.
type ListPlantsInput struct {
	Query         string `query:"q" doc:"Free-text query; every word must prefix-match"`
	PlantType     string `query:"plant_type" doc:"Exact plant type"`
	Light         string `query:"light" doc:"Exact light requirement"`
	IndoorOutdoor string `query:"indoor_outdoor" doc:"Exact indoor/outdoor value"`
}

// PlantsResponse contains a list of plants.
type PlantsResponse struct {
	Plants []*domain.Plant `json:"plants"`
}

// PlantsOutput wraps the plant list for Huma.
type PlantsOutput struct {
	Body PlantsResponse
}

// PlantBodyInput wraps a plant request body for Huma.
type PlantBodyInput struct {
	Body service.PlantInput
}

// UpdatePlantInput wraps the update plant request for Huma.
type UpdatePlantInput struct {
	ID   string `path:"id" doc:"Plant ID"`
	Body service.PlantInput
}

// PlantOutput wraps a plant for Huma.
type PlantOutput struct {
	Body *domain.Plant
}

// PlantDetailOutput wraps a plant detail for Huma.
type PlantDetailOutput struct {
	Body *service.PlantDetail
}

// FilterOptionsOutput wraps the filter options for Huma.
type FilterOptionsOutput struct {
	Body *domain.PlantFilterOptions
}

// === Handlers ===

func (s *Server) handleListPlants(ctx context.Context, input *ListPlantsInput) (*PlantsOutput, error) {
	plants, err := s.services.Catalog.ListPlants(ctx, domain.PlantFilter{
		Query:            input.Query,
		PlantType:        input.PlantType,
		LightRequirement: input.Light,
		IndoorOutdoor:    input.IndoorOutdoor,
	})
	if err != nil {
		return nil, err
	}
	return &PlantsOutput{Body: PlantsResponse{Plants: plants}}, nil
}

func (s *Server) handleCreatePlant(ctx context.Context, input *PlantBodyInput) (*PlantOutput, error) {
	p, err := s.services.Catalog.CreatePlant(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &PlantOutput{Body: p}, nil
}

func (s *Server) handleFilterOptions(ctx context.Context, _ *struct{}) (*FilterOptionsOutput, error) {
	opts, err := s.services.Catalog.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}
	return &FilterOptionsOutput{Body: opts}, nil
}

func (s *Server) handleGetPlant(ctx context.Context, input *PlantIDInput) (*PlantDetailOutput, error) {
	detail, err := s.services.Catalog.GetPlantDetail(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PlantDetailOutput{Body: detail}, nil
}

func (s *Server) handleUpdatePlant(ctx context.Context, input *UpdatePlantInput) (*PlantOutput, error) {
	p, err := s.services.Catalog.UpdatePlant(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PlantOutput{Body: p}, nil
}

func (s *Server) handleDeletePlant(ctx context.Context, input *PlantIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeletePlant(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("plant deleted"), nil
}
