package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

func (s *Server) registerPacketLotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPacketLots",
		Method:      http.MethodGet,
		Path:        "/api/v1/plants/{id}/lots",
		Summary:     "List packet lots",
		Description: "Returns a plant's packet lots with their photos, newest first",
		Tags:        []string{"Packet Lots"},
	}, s.handleListPacketLots)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPacketLot",
		Method:        http.MethodPost,
		Path:          "/api/v1/plants/{id}/lots",
		Summary:       "Create packet lot",
		Description:   "Adds a packet lot to a plant",
		Tags:          []string{"Packet Lots"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePacketLot)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePacketLot",
		Method:      http.MethodPut,
		Path:        "/api/v1/lots/{id}",
		Summary:     "Update packet lot",
		Description: "Replaces the editable fields of a packet lot",
		Tags:        []string{"Packet Lots"},
	}, s.handleUpdatePacketLot)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePacketLot",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lots/{id}",
		Summary:     "Delete packet lot",
		Description: "Deletes a packet lot with its photos",
		Tags:        []string{"Packet Lots"},
	}, s.handleDeletePacketLot)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addPhoto",
		Method:        http.MethodPost,
		Path:          "/api/v1/lots/{id}/photos",
		Summary:       "Add photo",
		Description:   "Attaches a photo reference to a packet lot",
		Tags:          []string{"Packet Lots"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePhoto",
		Method:      http.MethodDelete,
		Path:        "/api/v1/photos/{id}",
		Summary:     "Delete photo",
		Description: "Removes a photo reference",
		Tags:        []string{"Packet Lots"},
	}, s.handleDeletePhoto)
}

// === DTOs ===

// PacketLotsResponse lists packet lots.
type PacketLotsResponse struct {
	Lots []domain.PacketLotWithPhotos `json:"lots"`
}

// PacketLotsOutput wraps the lot list for Huma.
type PacketLotsOutput struct {
	Body PacketLotsResponse
}

// PacketLotBodyInput wraps a packet lot request for Huma.
type PacketLotBodyInput struct {
	ID   string `path:"id" doc:"Plant or packet lot ID"`
	Body service.PacketLotInput
}

// PacketLotOutput wraps a packet lot for Huma.
type PacketLotOutput struct {
	Body *domain.PacketLot
}

// LotIDInput identifies a packet lot.
type LotIDInput struct {
	ID string `path:"id" doc:"Packet lot ID"`
}

// AddPhotoInput wraps an add photo request for Huma.
type AddPhotoInput struct {
	ID   string `path:"id" doc:"Packet lot ID"`
	Body service.PhotoInput
}

// PhotoOutput wraps a photo for Huma.
type PhotoOutput struct {
	Body *domain.Photo
}

// PhotoIDInput identifies a photo.
type PhotoIDInput struct {
	ID string `path:"id" doc:"Photo ID"`
}

// === Handlers ===

func (s *Server) handleListPacketLots(ctx context.Context, input *PlantIDInput) (*PacketLotsOutput, error) {
	lots, err := s.services.Catalog.ListPacketLots(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PacketLotsOutput{Body: PacketLotsResponse{Lots: lots}}, nil
}

func (s *Server) handleCreatePacketLot(ctx context.Context, input *PacketLotBodyInput) (*PacketLotOutput, error) {
	lot, err := s.services.Catalog.CreatePacketLot(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PacketLotOutput{Body: lot}, nil
}

func (s *Server) handleUpdatePacketLot(ctx context.Context, input *PacketLotBodyInput) (*PacketLotOutput, error) {
	lot, err := s.services.Catalog.UpdatePacketLot(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PacketLotOutput{Body: lot}, nil
}

func (s *Server) handleDeletePacketLot(ctx context.Context, input *LotIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeletePacketLot(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("packet lot deleted"), nil
}

func (s *Server) handleAddPhoto(ctx context.Context, input *AddPhotoInput) (*PhotoOutput, error) {
	photo, err := s.services.Catalog.AddPhoto(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PhotoOutput{Body: photo}, nil
}

func (s *Server) handleDeletePhoto(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeletePhoto(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("photo deleted"), nil
}
