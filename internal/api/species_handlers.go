package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	domainerrors "github.com/seedcatalog/seedcatalog-server/internal/errors"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

func (s *Server) registerSpeciesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "matchSpecies",
		Method:      http.MethodGet,
		Path:        "/api/v1/species/match",
		Summary:     "Match species",
		Description: "Looks up species candidates for a typed or scanned plant name. An empty list means no match or the lookup service is unavailable.",
		Tags:        []string{"Species"},
	}, s.handleMatchSpecies)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveSpecies",
		Method:      http.MethodPost,
		Path:        "/api/v1/species/{usageKey}/resolve",
		Summary:     "Resolve species",
		Description: "Resolves a selected candidate into accepted name, taxonomy, vernacular names and field attributions",
		Tags:        []string{"Species"},
	}, s.handleResolveSpecies)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAttributions",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/{id}/attributions",
		Summary:     "List attributions",
		Description: "Returns the source attributions recorded for a plant's fields",
		Tags:        []string{"Species"},
	}, s.handleListAttributions)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveAttributions",
		Method:      http.MethodPut,
		Path:        "/api/v1/plants/{id}/attributions",
		Summary:     "Replace attributions",
		Description: "Replaces every source attribution of a plant with the given set",
		Tags:        []string{"Species"},
	}, s.handleSaveAttributions)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyAutofill",
		Method:      http.MethodPost,
		Path:        "/api/v1/plants/{id}/autofill",
		Summary:     "Apply species autofill",
		Description: "Resolves a candidate and writes its names and attributions onto the plant",
		Tags:        []string{"Species"},
	}, s.handleApplyAutofill)
}

// === DTOs ===

// MatchSpeciesInput contains parameters for matching species.
type MatchSpeciesInput struct {
	Name string `query:"name" doc:"Extracted or typed plant name"`
}

// MatchSpeciesResponse contains species candidates.
type MatchSpeciesResponse struct {
	Candidates []domain.SpeciesMatchCandidate `json:"candidates" doc:"Candidates, best first"`
}

// MatchSpeciesOutput wraps the match response for Huma.
type MatchSpeciesOutput struct {
	Body MatchSpeciesResponse
}

// CandidateRequest optionally carries the candidate as it was shown to the user.
type CandidateRequest struct {
	ScientificName  string                 `json:"scientific_name,omitempty" doc:"Name from the match step"`
	Confidence      float64                `json:"confidence,omitempty" minimum:"0" maximum:"1" doc:"Confidence from the match step"`
	TaxonomicStatus string                 `json:"taxonomic_status,omitempty"`
	Rank            string                 `json:"rank,omitempty"`
	Taxonomy        domain.TaxonomySummary `json:"taxonomy,omitempty"`
}

// ResolveSpeciesInput contains parameters for resolving a species.
type ResolveSpeciesInput struct {
	UsageKey int64             `path:"usageKey" doc:"Species usage key from the match step"`
	Body     *CandidateRequest `required:"false"`
}

// AutofillResultOutput wraps an autofill result for Huma.
type AutofillResultOutput struct {
	Body *domain.AutofillResult
}

// PlantIDInput identifies a plant.
type PlantIDInput struct {
	ID string `path:"id" doc:"Plant ID"`
}

// AttributionsResponse lists a plant's source attributions.
type AttributionsResponse struct {
	Attributions []domain.SourceAttribution `json:"attributions"`
}

// AttributionsOutput wraps the attributions response for Huma.
type AttributionsOutput struct {
	Body AttributionsResponse
}

// SaveAttributionsRequest is the request body for replacing attributions.
type SaveAttributionsRequest struct {
	Attributions map[string]domain.FieldAttribution `json:"attributions" doc:"Attribution per plant field"`
}

// SaveAttributionsInput wraps the save attributions request for Huma.
type SaveAttributionsInput struct {
	ID   string `path:"id" doc:"Plant ID"`
	Body SaveAttributionsRequest
}

// ApplyAutofillRequest is the request body for applying autofill.
type ApplyAutofillRequest struct {
	UsageKey  int64             `json:"usage_key" doc:"Species usage key from the match step"`
	Candidate *CandidateRequest `json:"candidate,omitempty" doc:"Candidate as shown to the user"`
}

// ApplyAutofillInput wraps the apply autofill request for Huma.
type ApplyAutofillInput struct {
	ID   string `path:"id" doc:"Plant ID"`
	Body ApplyAutofillRequest
}

// ApplyAutofillOutput wraps the apply result for Huma.
type ApplyAutofillOutput struct {
	Body *service.ApplyResult
}

// === Handlers ===

func (s *Server) handleMatchSpecies(ctx context.Context, input *MatchSpeciesInput) (*MatchSpeciesOutput, error) {
	candidates := s.services.Autofill.FindCandidates(ctx, input.Name)
	if candidates == nil {
		candidates = []domain.SpeciesMatchCandidate{}
	}
	return &MatchSpeciesOutput{Body: MatchSpeciesResponse{Candidates: candidates}}, nil
}

func (s *Server) handleResolveSpecies(ctx context.Context, input *ResolveSpeciesInput) (*AutofillResultOutput, error) {
	candidate, err := s.candidateFor(input.UsageKey, input.Body)
	if err != nil {
		return nil, err
	}

	result := s.services.Autofill.ResolveSelection(ctx, candidate)
	if result == nil {
		return nil, domainerrors.Unavailable("species details are unavailable right now")
	}
	return &AutofillResultOutput{Body: result}, nil
}

func (s *Server) handleListAttributions(ctx context.Context, input *PlantIDInput) (*AttributionsOutput, error) {
	if _, err := s.services.Catalog.GetPlant(ctx, input.ID); err != nil {
		return nil, err
	}

	attrs, err := s.services.Autofill.ListAttributions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AttributionsOutput{Body: AttributionsResponse{Attributions: attrs}}, nil
}

func (s *Server) handleSaveAttributions(ctx context.Context, input *SaveAttributionsInput) (*AttributionsOutput, error) {
	if _, err := s.services.Catalog.GetPlant(ctx, input.ID); err != nil {
		return nil, err
	}

	if err := s.services.Autofill.SaveAttributions(ctx, input.ID, input.Body.Attributions); err != nil {
		return nil, err
	}

	attrs, err := s.services.Autofill.ListAttributions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AttributionsOutput{Body: AttributionsResponse{Attributions: attrs}}, nil
}

func (s *Server) handleApplyAutofill(ctx context.Context, input *ApplyAutofillInput) (*ApplyAutofillOutput, error) {
	if _, err := s.services.Catalog.GetPlant(ctx, input.ID); err != nil {
		return nil, err
	}

	candidate, err := s.candidateFor(input.Body.UsageKey, input.Body.Candidate)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Autofill.ApplyAutofill(ctx, input.ID, candidate)
	if err != nil {
		return nil, err
	}
	return &ApplyAutofillOutput{Body: res}, nil
}

// candidateFor builds the candidate to resolve. A client-supplied candidate
// wins; otherwise the one offered by a recent match is used.
func (s *Server) candidateFor(usageKey int64, req *CandidateRequest) (domain.SpeciesMatchCandidate, error) {
	if usageKey <= 0 {
		return domain.SpeciesMatchCandidate{}, domainerrors.ValidationWithDetails("invalid usage key", map[string]string{
			"usage_key": "must be a positive integer",
		})
	}

	if req == nil || req.ScientificName == "" {
		return s.services.Autofill.CandidateForKey(usageKey), nil
	}

	return domain.SpeciesMatchCandidate{
		UsageKey:        usageKey,
		ScientificName:  req.ScientificName,
		Confidence:      req.Confidence,
		TaxonomicStatus: req.TaxonomicStatus,
		Rank:            req.Rank,
		Taxonomy:        req.Taxonomy,
	}, nil
}
