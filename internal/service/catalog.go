package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	domainerrors "github.com/seedcatalog/seedcatalog-server/internal/errors"
	"github.com/seedcatalog/seedcatalog-server/internal/id"
	"github.com/seedcatalog/seedcatalog-server/internal/media/images"
	"github.com/seedcatalog/seedcatalog-server/internal/normalize"
	"github.com/seedcatalog/seedcatalog-server/internal/validation"
)

// CatalogStore is the persistence the catalog service needs.
type CatalogStore interface {
	PlantLister
	CreatePlant(ctx context.Context, p *domain.Plant) error
	GetPlant(ctx context.Context, plantID string) (*domain.Plant, error)
	UpdatePlant(ctx context.Context, p *domain.Plant) error
	DeletePlant(ctx context.Context, plantID string) error
	GetPlantFilterOptions(ctx context.Context) (*domain.PlantFilterOptions, error)

	CreatePacketLot(ctx context.Context, l *domain.PacketLot) error
	GetPacketLot(ctx context.Context, lotID string) (*domain.PacketLot, error)
	UpdatePacketLot(ctx context.Context, l *domain.PacketLot) error
	DeletePacketLot(ctx context.Context, lotID string) error
	ListPacketLotsWithPhotos(ctx context.Context, plantID string) ([]domain.PacketLotWithPhotos, error)

	AddPhoto(ctx context.Context, p *domain.Photo) error
	GetPhoto(ctx context.Context, photoID string) (*domain.Photo, error)
	DeletePhoto(ctx context.Context, photoID string) error

	CreateNote(ctx context.Context, n *domain.Note) error
	ListNotesForPlant(ctx context.Context, plantID string) ([]domain.Note, error)
	ListNotesForPacketLot(ctx context.Context, lotID string) ([]domain.Note, error)
}

// PlantSearcher indexes plants and answers free-text queries.
type PlantSearcher interface {
	IndexPlant(ctx context.Context, p *domain.Plant) error
	RemovePlant(ctx context.Context, plantID string) error
	MatchingPlantIDs(ctx context.Context, query string) ([]string, error)
}

// PlantInput carries the editable fields of a plant.
type PlantInput struct {
	BotanicalName       string `json:"botanical_name,omitempty" validate:"max=200"`
	CommonName          string `json:"common_name,omitempty" validate:"max=200"`
	Variety             string `json:"variety,omitempty" validate:"max=200"`
	PlantType           string `json:"plant_type,omitempty" validate:"max=100"`
	LightRequirement    string `json:"light_requirement,omitempty" validate:"max=100"`
	IndoorOutdoor       string `json:"indoor_outdoor,omitempty" validate:"max=100"`
	Description         string `json:"description,omitempty" validate:"max=10000"`
	MedicinalUses       string `json:"medicinal_uses,omitempty" validate:"max=10000"`
	CulinaryUses        string `json:"culinary_uses,omitempty" validate:"max=10000"`
	GrowingInstructions string `json:"growing_instructions,omitempty" validate:"max=10000"`
	Notes               string `json:"notes,omitempty" validate:"max=10000"`
}

func (in PlantInput) applyTo(p *domain.Plant) {
	p.BotanicalName = strings.TrimSpace(in.BotanicalName)
	p.CommonName = strings.TrimSpace(in.CommonName)
	p.Variety = strings.TrimSpace(in.Variety)
	p.PlantType = normalize.FilterValue(in.PlantType)
	p.LightRequirement = normalize.FilterValue(in.LightRequirement)
	p.IndoorOutdoor = normalize.FilterValue(in.IndoorOutdoor)
	p.Description = in.Description
	p.MedicinalUses = in.MedicinalUses
	p.CulinaryUses = in.CulinaryUses
	p.GrowingInstructions = in.GrowingInstructions
	p.Notes = in.Notes
}

// PacketLotInput carries the editable fields of a packet lot.
type PacketLotInput struct {
	LotCode  string `json:"lot_code,omitempty" validate:"max=100"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Notes    string `json:"notes,omitempty" validate:"max=10000"`
}

// PhotoInput describes a photo reference to attach to a packet lot.
type PhotoInput struct {
	URI  string `json:"uri" validate:"notblank,max=2048"`
	Type string `json:"type" validate:"phototype"`
}

// NoteInput describes a note. PlantID and PacketLotID are both optional.
type NoteInput struct {
	PlantID     string `json:"plant_id,omitempty"`
	PacketLotID string `json:"packet_lot_id,omitempty"`
	Content     string `json:"content" validate:"notblank,max=10000"`
}

// PlantDetail is a plant with everything hanging off it.
type PlantDetail struct {
	Plant        *domain.Plant                `json:"plant"`
	Lots         []domain.PacketLotWithPhotos `json:"lots"`
	Notes        []domain.Note                `json:"notes"`
	Attributions []domain.SourceAttribution   `json:"attributions"`
}

// CatalogService manages plants, packet lots, photos and notes.
// Plant writes keep the search index current; index failures are logged
// and never fail the write.
type CatalogService struct {
	store        CatalogStore
	search       PlantSearcher
	attributions AttributionStore
	validator    *validation.Validator
	now          func() time.Time
	logger       *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store CatalogStore, search PlantSearcher, attributions AttributionStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:        store,
		search:       search,
		attributions: attributions,
		validator:    validation.New(),
		now:          time.Now,
		logger:       logger,
	}
}

func (s *CatalogService) validatePlant(in PlantInput) error {
	if err := s.validator.Validate(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.BotanicalName) == "" && strings.TrimSpace(in.CommonName) == "" {
		return domainerrors.ValidationWithDetails("a plant needs a botanical or common name", map[string]string{
			"botanical_name": "is required when common_name is empty",
		})
	}
	return nil
}

// CreatePlant validates and stores a new plant.
func (s *CatalogService) CreatePlant(ctx context.Context, in PlantInput) (*domain.Plant, error) {
	if err := s.validatePlant(in); err != nil {
		return nil, err
	}

	plantID, err := id.Generate(id.PrefixPlant)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate plant id")
	}

	now := s.now()
	p := &domain.Plant{ID: plantID, Timestamps: domain.Timestamps{CreatedAt: now, UpdatedAt: now}}
	in.applyTo(p)

	if err := s.store.CreatePlant(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)

	s.logger.Info("plant created", "plant_id", p.ID, "name", p.DisplayName())
	return p, nil
}

// GetPlant returns a plant by ID.
func (s *CatalogService) GetPlant(ctx context.Context, plantID string) (*domain.Plant, error) {
	return s.store.GetPlant(ctx, plantID)
}

// GetPlantDetail returns a plant with its lots, notes and attributions.
func (s *CatalogService) GetPlantDetail(ctx context.Context, plantID string) (*PlantDetail, error) {
	p, err := s.store.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	lots, err := s.store.ListPacketLotsWithPhotos(ctx, plantID)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotesForPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	attrs, err := s.attributions.ListSourceAttributions(ctx, plantID)
	if err != nil {
		return nil, err
	}

	return &PlantDetail{
		Plant:        p,
		Lots:         nonNil(lots),
		Notes:        nonNil(notes),
		Attributions: nonNil(attrs),
	}, nil
}

// UpdatePlant replaces the editable fields of a plant.
func (s *CatalogService) UpdatePlant(ctx context.Context, plantID string, in PlantInput) (*domain.Plant, error) {
	if err := s.validatePlant(in); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	in.applyTo(p)
	p.UpdatedAt = s.now()

	if err := s.store.UpdatePlant(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)

	return p, nil
}

// ApplySpeciesNames writes autofilled names onto a plant. A blank common
// name leaves the existing one untouched.
func (s *CatalogService) ApplySpeciesNames(ctx context.Context, plantID, botanicalName, commonName string) (*domain.Plant, error) {
	p, err := s.store.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(botanicalName); name != "" {
		p.BotanicalName = name
	}
	if name := strings.TrimSpace(commonName); name != "" {
		p.CommonName = name
	}
	p.UpdatedAt = s.now()

	if err := s.store.UpdatePlant(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)

	return p, nil
}

// DeletePlant removes a plant along with its lots, photos, notes and attributions.
func (s *CatalogService) DeletePlant(ctx context.Context, plantID string) error {
	if err := s.store.DeletePlant(ctx, plantID); err != nil {
		return err
	}
	if err := s.search.RemovePlant(ctx, plantID); err != nil {
		s.logger.Warn("failed to remove plant from search index", "plant_id", plantID, "error", err)
	}
	s.logger.Info("plant deleted", "plant_id", plantID)
	return nil
}

// ListPlants returns plants matching the filter. A non-blank Query must
// match every term as a word prefix somewhere in the plant's text.
func (s *CatalogService) ListPlants(ctx context.Context, f domain.PlantFilter) ([]*domain.Plant, error) {
	f.PlantType = normalize.FilterValue(f.PlantType)
	f.LightRequirement = normalize.FilterValue(f.LightRequirement)
	f.IndoorOutdoor = normalize.FilterValue(f.IndoorOutdoor)

	ids, err := s.search.MatchingPlantIDs(ctx, f.Query)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "plant search failed")
	}

	plants, err := s.store.ListPlants(ctx, f, ids)
	if err != nil {
		return nil, err
	}
	return nonNil(plants), nil
}

// FilterOptions returns the distinct values available for each plant filter.
func (s *CatalogService) FilterOptions(ctx context.Context) (*domain.PlantFilterOptions, error) {
	return s.store.GetPlantFilterOptions(ctx)
}

func (s *CatalogService) index(ctx context.Context, p *domain.Plant) {
	if err := s.search.IndexPlant(ctx, p); err != nil {
		s.logger.Warn("failed to index plant", "plant_id", p.ID, "error", err)
	}
}

// CreatePacketLot adds a packet lot to a plant.
func (s *CatalogService) CreatePacketLot(ctx context.Context, plantID string, in PacketLotInput) (*domain.PacketLot, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	lotID, err := id.Generate(id.PrefixPacketLot)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate lot id")
	}

	lot := &domain.PacketLot{
		ID:        lotID,
		PlantID:   plantID,
		LotCode:   strings.TrimSpace(in.LotCode),
		Quantity:  in.Quantity,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePacketLot(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// UpdatePacketLot replaces the editable fields of a packet lot.
func (s *CatalogService) UpdatePacketLot(ctx context.Context, lotID string, in PacketLotInput) (*domain.PacketLot, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	lot, err := s.store.GetPacketLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	lot.LotCode = strings.TrimSpace(in.LotCode)
	lot.Quantity = in.Quantity
	lot.Notes = in.Notes

	if err := s.store.UpdatePacketLot(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// DeletePacketLot removes a packet lot and its photos.
func (s *CatalogService) DeletePacketLot(ctx context.Context, lotID string) error {
	return s.store.DeletePacketLot(ctx, lotID)
}

// ListPacketLots returns a plant's lots with their photos, newest first.
func (s *CatalogService) ListPacketLots(ctx context.Context, plantID string) ([]domain.PacketLotWithPhotos, error) {
	if _, err := s.store.GetPlant(ctx, plantID); err != nil {
		return nil, err
	}
	lots, err := s.store.ListPacketLotsWithPhotos(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return nonNil(lots), nil
}

// AddPhoto attaches a photo reference to a packet lot. When the URI names a
// readable local image, a BlurHash placeholder is stored with it.
func (s *CatalogService) AddPhoto(ctx context.Context, lotID string, in PhotoInput) (*domain.Photo, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	photoID, err := id.Generate(id.PrefixPhoto)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate photo id")
	}

	photo := &domain.Photo{
		ID:          photoID,
		PacketLotID: lotID,
		URI:         strings.TrimSpace(in.URI),
		Type:        domain.PhotoType(in.Type),
		CreatedAt:   s.now(),
	}

	hash, err := images.PlaceholderForURI(photo.URI)
	switch {
	case err == nil:
		photo.BlurHash = hash
	case errors.Is(err, images.ErrNotLocal):
	default:
		s.logger.Debug("no placeholder for photo", "uri", photo.URI, "error", err)
	}

	if err := s.store.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// DeletePhoto removes a photo reference. The image itself is left alone.
func (s *CatalogService) DeletePhoto(ctx context.Context, photoID string) error {
	return s.store.DeletePhoto(ctx, photoID)
}

// AddNote stores a note against a plant, a packet lot, both or neither.
func (s *CatalogService) AddNote(ctx context.Context, in NoteInput) (*domain.Note, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate note id")
	}

	n := &domain.Note{
		ID:          noteID,
		PlantID:     optional(in.PlantID),
		PacketLotID: optional(in.PacketLotID),
		Content:     strings.TrimSpace(in.Content),
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListPlantNotes returns a plant's notes, newest first.
func (s *CatalogService) ListPlantNotes(ctx context.Context, plantID string) ([]domain.Note, error) {
	notes, err := s.store.ListNotesForPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return nonNil(notes), nil
}

// ListPacketLotNotes returns a packet lot's notes, newest first.
func (s *CatalogService) ListPacketLotNotes(ctx context.Context, lotID string) ([]domain.Note, error) {
	notes, err := s.store.ListNotesForPacketLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return nonNil(notes), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
