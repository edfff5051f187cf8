package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

// CreateNote inserts a note. A note may reference a plant, a packet lot, or neither.
func (s *Store) CreateNote(ctx context.Context, n *domain.Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, plant_id, packet_lot_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID,
		nullableString(n.PlantID),
		nullableString(n.PacketLotID),
		n.Content,
		formatTime(n.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithMessage("note target not found")
		}
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// ListNotesForPlant returns a plant's notes, newest first.
func (s *Store) ListNotesForPlant(ctx context.Context, plantID string) ([]domain.Note, error) {
	return s.listNotes(ctx, `plant_id = ?`, plantID)
}

// ListNotesForPacketLot returns a packet lot's notes, newest first.
func (s *Store) ListNotesForPacketLot(ctx context.Context, lotID string) ([]domain.Note, error) {
	return s.listNotes(ctx, `packet_lot_id = ?`, lotID)
}

func (s *Store) listNotes(ctx context.Context, cond string, arg string) ([]domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plant_id, packet_lot_id, content, created_at
		FROM notes
		WHERE `+cond+`
		ORDER BY created_at DESC, id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		var (
			n              domain.Note
			plantID, lotID sql.NullString
			createdAt      string
		)
		if err := rows.Scan(&n.ID, &plantID, &lotID, &n.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.PlantID = stringPtr(plantID)
		n.PacketLotID = stringPtr(lotID)
		n.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
