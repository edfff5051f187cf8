package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

const packetLotColumns = `id, plant_id, lot_code, quantity, notes, created_at`

func scanPacketLot(scanner interface{ Scan(dest ...any) error }) (*domain.PacketLot, error) {
	var (
		l         domain.PacketLot
		createdAt string
	)
	if err := scanner.Scan(&l.ID, &l.PlantID, &l.LotCode, &l.Quantity, &l.Notes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreatePacketLot inserts a packet lot.
// Returns store.ErrPlantNotFound if the plant does not exist.
func (s *Store) CreatePacketLot(ctx context.Context, l *domain.PacketLot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packet_lots (`+packetLotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.PlantID,
		l.LotCode,
		l.Quantity,
		l.Notes,
		formatTime(l.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrPlantNotFound
		}
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert packet lot: %w", err)
	}
	return nil
}

// GetPacketLot retrieves a packet lot by ID.
func (s *Store) GetPacketLot(ctx context.Context, lotID string) (*domain.PacketLot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+packetLotColumns+` FROM packet_lots WHERE id = ?`, lotID)

	l, err := scanPacketLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPacketLotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get packet lot: %w", err)
	}
	return l, nil
}

// UpdatePacketLot updates the lot code, quantity and notes of a packet lot.
func (s *Store) UpdatePacketLot(ctx context.Context, l *domain.PacketLot) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE packet_lots SET lot_code = ?, quantity = ?, notes = ?
		WHERE id = ?`,
		l.LotCode, l.Quantity, l.Notes, l.ID)
	if err != nil {
		return fmt.Errorf("update packet lot: %w", err)
	}
	return requireAffected(result, store.ErrPacketLotNotFound)
}

// DeletePacketLot removes a packet lot with its photos and notes.
func (s *Store) DeletePacketLot(ctx context.Context, lotID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM packet_lots WHERE id = ?`, lotID)
	if err != nil {
		return fmt.Errorf("delete packet lot: %w", err)
	}
	return requireAffected(result, store.ErrPacketLotNotFound)
}

// ListPacketLotsWithPhotos returns a plant's packet lots, newest first,
// each with its photos in insertion order.
func (s *Store) ListPacketLotsWithPhotos(ctx context.Context, plantID string) ([]domain.PacketLotWithPhotos, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+packetLotColumns+`
		FROM packet_lots
		WHERE plant_id = ?
		ORDER BY created_at DESC, id DESC`, plantID)
	if err != nil {
		return nil, fmt.Errorf("query packet lots: %w", err)
	}
	defer rows.Close()

	lots := []domain.PacketLotWithPhotos{}
	index := make(map[string]int)
	for rows.Next() {
		l, err := scanPacketLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan packet lot: %w", err)
		}
		index[l.ID] = len(lots)
		lots = append(lots, domain.PacketLotWithPhotos{PacketLot: *l, Photos: []domain.Photo{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return lots, nil
	}

	photoRows, err := s.db.QueryContext(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		WHERE packet_lot_id IN (SELECT id FROM packet_lots WHERE plant_id = ?)
		ORDER BY created_at, id`, plantID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer photoRows.Close()

	for photoRows.Next() {
		p, err := scanPhoto(photoRows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if i, ok := index[p.PacketLotID]; ok {
			lots[i].Photos = append(lots[i].Photos, *p)
		}
	}
	return lots, photoRows.Err()
}
