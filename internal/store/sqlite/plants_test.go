package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

func TestCreateAndGetPlant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := makeTestPlant("plant-1", "Tomato", "Solanum lycopersicum")
	p.Variety = "Brandywine"
	p.PlantType = "Vegetable"
	p.LightRequirement = "Full sun"
	p.IndoorOutdoor = "Outdoor"
	p.GrowingInstructions = "Start indoors 6 weeks before last frost."

	if err := s.CreatePlant(ctx, p); err != nil {
		t.Fatalf("CreatePlant: %v", err)
	}

	got, err := s.GetPlant(ctx, "plant-1")
	if err != nil {
		t.Fatalf("GetPlant: %v", err)
	}
	if got.Variety != "Brandywine" || got.PlantType != "Vegetable" || got.GrowingInstructions != p.GrowingInstructions {
		t.Errorf("fields not preserved: %+v", got)
	}
	if got.CreatedAt.Unix() != p.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}

	if err := s.CreatePlant(ctx, p); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate create: got %v, want ErrAlreadyExists", err)
	}
}

func TestGetPlant_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPlant(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdatePlant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := insertTestPlant(t, s, "plant-1", "Tomato")

	p.BotanicalName = "Solanum lycopersicum L."
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	if err := s.UpdatePlant(ctx, p); err != nil {
		t.Fatalf("UpdatePlant: %v", err)
	}

	got, err := s.GetPlant(ctx, "plant-1")
	if err != nil {
		t.Fatalf("GetPlant: %v", err)
	}
	if got.BotanicalName != "Solanum lycopersicum L." {
		t.Errorf("BotanicalName: got %q", got.BotanicalName)
	}
	if got.UpdatedAt.Unix() != p.UpdatedAt.Unix() {
		t.Errorf("UpdatedAt not written")
	}

	missing := makeTestPlant("nope", "", "")
	if err := s.UpdatePlant(ctx, missing); !errors.Is(err, store.ErrPlantNotFound) {
		t.Errorf("update missing: got %v", err)
	}
}

func TestDeletePlant_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")
	now := time.Now()

	lot := &domain.PacketLot{ID: "lot-1", PlantID: "plant-1", LotCode: "A1", Quantity: 20, CreatedAt: now}
	if err := s.CreatePacketLot(ctx, lot); err != nil {
		t.Fatalf("CreatePacketLot: %v", err)
	}
	photo := &domain.Photo{ID: "photo-1", PacketLotID: "lot-1", URI: "file:///front.jpg", Type: domain.PhotoTypeFront, CreatedAt: now}
	if err := s.AddPhoto(ctx, photo); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	plantID := "plant-1"
	lotID := "lot-1"
	for i, n := range []*domain.Note{
		{ID: "note-1", PlantID: &plantID, Content: "Sown March", CreatedAt: now},
		{ID: "note-2", PacketLotID: &lotID, Content: "Packet torn", CreatedAt: now},
	} {
		if err := s.CreateNote(ctx, n); err != nil {
			t.Fatalf("CreateNote %d: %v", i, err)
		}
	}

	if err := s.DeletePlant(ctx, "plant-1"); err != nil {
		t.Fatalf("DeletePlant: %v", err)
	}

	for _, table := range []string{"packet_lots", "photos", "notes"} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: %d rows remain after plant delete", table, n)
		}
	}

	if err := s.DeletePlant(ctx, "plant-1"); !errors.Is(err, store.ErrPlantNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestListPlants_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []*domain.Plant{
		{ID: "p1", CommonName: "tomato", PlantType: "Vegetable", LightRequirement: "Full sun", IndoorOutdoor: "Outdoor"},
		{ID: "p2", CommonName: "Basil", PlantType: "Herb", LightRequirement: "Full sun", IndoorOutdoor: "Both"},
		{ID: "p3", CommonName: "Mint", PlantType: "Herb", LightRequirement: "Part shade", IndoorOutdoor: "Indoor"},
	}
	for _, p := range seed {
		p.InitTimestamps()
		if err := s.CreatePlant(ctx, p); err != nil {
			t.Fatalf("CreatePlant: %v", err)
		}
	}

	ids := func(plants []*domain.Plant) []string {
		out := []string{}
		for _, p := range plants {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.PlantFilter
		ids    []string
		want   []string
	}{
		{"all ordered by common name", domain.PlantFilter{}, nil, []string{"p2", "p3", "p1"}},
		{"plant type", domain.PlantFilter{PlantType: "Herb"}, nil, []string{"p2", "p3"}},
		{"type and light", domain.PlantFilter{PlantType: "Herb", LightRequirement: "Full sun"}, nil, []string{"p2"}},
		{"indoor outdoor", domain.PlantFilter{IndoorOutdoor: "Indoor"}, nil, []string{"p3"}},
		{"no match", domain.PlantFilter{PlantType: "Tree"}, nil, []string{}},
		{"restricted ids", domain.PlantFilter{}, []string{"p1", "p3"}, []string{"p3", "p1"}},
		{"ids and filter", domain.PlantFilter{PlantType: "Herb"}, []string{"p1", "p3"}, []string{"p3"}},
		{"empty ids", domain.PlantFilter{}, []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListPlants(ctx, tt.filter, tt.ids)
			if err != nil {
				t.Fatalf("ListPlants: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestGetPlantFilterOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*domain.Plant{
		{ID: "p1", PlantType: "Vegetable", LightRequirement: "Full sun"},
		{ID: "p2", PlantType: "Herb", LightRequirement: "Full sun", IndoorOutdoor: "Indoor"},
		{ID: "p3", PlantType: "Herb"},
	} {
		p.InitTimestamps()
		if err := s.CreatePlant(ctx, p); err != nil {
			t.Fatalf("CreatePlant: %v", err)
		}
	}

	opts, err := s.GetPlantFilterOptions(ctx)
	if err != nil {
		t.Fatalf("GetPlantFilterOptions: %v", err)
	}

	want := &domain.PlantFilterOptions{
		PlantTypes:           []string{"Herb", "Vegetable"},
		LightRequirements:    []string{"Full sun"},
		IndoorOutdoorOptions: []string{"Indoor"},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("got %+v, want %+v", opts, want)
	}

	n, err := s.CountPlants(ctx)
	if err != nil {
		t.Fatalf("CountPlants: %v", err)
	}
	if n != 3 {
		t.Errorf("CountPlants: got %d, want 3", n)
	}
}
