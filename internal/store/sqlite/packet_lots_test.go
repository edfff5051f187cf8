package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

func TestPacketLotsWithPhotos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	lots := []*domain.PacketLot{
		{ID: "lot-a", PlantID: "plant-1", LotCode: "2023-A", Quantity: 10, CreatedAt: base},
		{ID: "lot-b", PlantID: "plant-1", LotCode: "2024-B", Quantity: 25, CreatedAt: base.Add(time.Hour)},
	}
	for _, l := range lots {
		if err := s.CreatePacketLot(ctx, l); err != nil {
			t.Fatalf("CreatePacketLot: %v", err)
		}
	}

	photos := []*domain.Photo{
		{ID: "photo-1", PacketLotID: "lot-a", URI: "file:///a-front.jpg", Type: domain.PhotoTypeFront, CreatedAt: base},
		{ID: "photo-2", PacketLotID: "lot-a", URI: "file:///a-back.jpg", Type: domain.PhotoTypeBack, BlurHash: "LEHV6nWB2yk8", CreatedAt: base.Add(time.Minute)},
	}
	for _, p := range photos {
		if err := s.AddPhoto(ctx, p); err != nil {
			t.Fatalf("AddPhoto: %v", err)
		}
	}

	got, err := s.ListPacketLotsWithPhotos(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListPacketLotsWithPhotos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lots, got %d", len(got))
	}
	if got[0].ID != "lot-b" {
		t.Errorf("newest lot first: got %s", got[0].ID)
	}
	if len(got[0].Photos) != 0 {
		t.Errorf("lot-b photos: got %d", len(got[0].Photos))
	}
	if len(got[1].Photos) != 2 {
		t.Fatalf("lot-a photos: got %d", len(got[1].Photos))
	}
	if got[1].Photos[0].Type != domain.PhotoTypeFront || got[1].Photos[1].BlurHash != "LEHV6nWB2yk8" {
		t.Errorf("photo fields not preserved: %+v", got[1].Photos)
	}
	if got[1].Photos[0].BlurHash != "" {
		t.Errorf("NULL blur hash should read back empty")
	}
}

func TestPacketLot_UpdateDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	lot := &domain.PacketLot{ID: "lot-1", PlantID: "plant-1", Quantity: 5, CreatedAt: time.Now()}
	if err := s.CreatePacketLot(ctx, lot); err != nil {
		t.Fatalf("CreatePacketLot: %v", err)
	}

	lot.Quantity = 3
	lot.Notes = "used two"
	if err := s.UpdatePacketLot(ctx, lot); err != nil {
		t.Fatalf("UpdatePacketLot: %v", err)
	}
	got, err := s.GetPacketLot(ctx, "lot-1")
	if err != nil {
		t.Fatalf("GetPacketLot: %v", err)
	}
	if got.Quantity != 3 || got.Notes != "used two" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.AddPhoto(ctx, &domain.Photo{ID: "photo-1", PacketLotID: "lot-1", URI: "x", Type: domain.PhotoTypePlant, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if err := s.DeletePacketLot(ctx, "lot-1"); err != nil {
		t.Fatalf("DeletePacketLot: %v", err)
	}
	if _, err := s.GetPhoto(ctx, "photo-1"); !errors.Is(err, store.ErrPhotoNotFound) {
		t.Errorf("photo should cascade: got %v", err)
	}
	if _, err := s.GetPacketLot(ctx, "lot-1"); !errors.Is(err, store.ErrPacketLotNotFound) {
		t.Errorf("GetPacketLot after delete: got %v", err)
	}
}

func TestCreatePacketLot_MissingPlant(t *testing.T) {
	s := newTestStore(t)

	err := s.CreatePacketLot(context.Background(), &domain.PacketLot{ID: "lot-1", PlantID: "ghost", CreatedAt: time.Now()})
	if !errors.Is(err, store.ErrPlantNotFound) {
		t.Errorf("got %v, want ErrPlantNotFound", err)
	}
}

func TestPhoto_AddDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AddPhoto(ctx, &domain.Photo{ID: "photo-1", PacketLotID: "ghost", URI: "x", Type: domain.PhotoTypeBack, CreatedAt: time.Now()})
	if !errors.Is(err, store.ErrPacketLotNotFound) {
		t.Errorf("AddPhoto to missing lot: got %v", err)
	}

	if err := s.DeletePhoto(ctx, "photo-1"); !errors.Is(err, store.ErrPhotoNotFound) {
		t.Errorf("DeletePhoto missing: got %v", err)
	}
}

func TestNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestPlant(t, s, "plant-1", "Tomato")

	plantID := "plant-1"
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		n := &domain.Note{
			ID:        "note-" + content,
			PlantID:   &plantID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.CreateNote(ctx, n); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
	}

	// Unattached notes are allowed.
	if err := s.CreateNote(ctx, &domain.Note{ID: "note-free", Content: "general", CreatedAt: base}); err != nil {
		t.Fatalf("CreateNote unattached: %v", err)
	}

	notes, err := s.ListNotesForPlant(ctx, "plant-1")
	if err != nil {
		t.Fatalf("ListNotesForPlant: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].Content != "third" || notes[2].Content != "first" {
		t.Errorf("expected newest first, got %q..%q", notes[0].Content, notes[2].Content)
	}
	if notes[0].PlantID == nil || *notes[0].PlantID != "plant-1" || notes[0].PacketLotID != nil {
		t.Errorf("references not preserved: %+v", notes[0])
	}

	missing := "ghost"
	err = s.CreateNote(ctx, &domain.Note{ID: "note-x", PlantID: &missing, Content: "x", CreatedAt: base})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("note for missing plant: got %v", err)
	}

	lotNotes, err := s.ListNotesForPacketLot(ctx, "none")
	if err != nil {
		t.Fatalf("ListNotesForPacketLot: %v", err)
	}
	if len(lotNotes) != 0 {
		t.Errorf("expected no lot notes, got %d", len(lotNotes))
	}
}
