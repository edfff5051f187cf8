package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes",
		Summary:       "Add note",
		Description:   "Adds a note, optionally linked to a plant and/or packet lot",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlantNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/{id}/notes",
		Summary:     "List plant notes",
		Description: "Returns a plant's notes, newest first",
		Tags:        []string{"Notes"},
	}, s.handleListPlantNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPacketLotNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/lots/{id}/notes",
		Summary:     "List packet lot notes",
		Description: "Returns a packet lot's notes, newest first",
		Tags:        []string{"Notes"},
	}, s.handleListPacketLotNotes)
}

// NoteBodyInput wraps an add note request for Huma.
type NoteBodyInput struct {
	Body service.NoteInput
}

// NoteOutput wraps a note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// NotesResponse lists notes.
type NotesResponse struct {
	Notes []domain.Note `json:"notes"`
}

// NotesOutput wraps the note list for Huma.
type NotesOutput struct {
	Body NotesResponse
}

func (s *Server) handleAddNote(ctx context.Context, input *NoteBodyInput) (*NoteOutput, error) {
	note, err := s.services.Catalog.AddNote(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleListPlantNotes(ctx context.Context, input *PlantIDInput) (*NotesOutput, error) {
	notes, err := s.services.Catalog.ListPlantNotes(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &NotesOutput{Body: NotesResponse{Notes: notes}}, nil
}

func (s *Server) handleListPacketLotNotes(ctx context.Context, input *LotIDInput) (*NotesOutput, error) {
	notes, err := s.services.Catalog.ListPacketLotNotes(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &NotesOutput{Body: NotesResponse{Notes: notes}}, nil
}
