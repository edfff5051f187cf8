package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

const photoColumns = `id, packet_lot_id, uri, type, blur_hash, created_at`

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*domain.Photo, error) {
	var (
		p         domain.Photo
		photoType string
		blurHash  sql.NullString
		createdAt string
	)
	if err := scanner.Scan(&p.ID, &p.PacketLotID, &p.URI, &photoType, &blurHash, &createdAt); err != nil {
		return nil, err
	}
	p.Type = domain.PhotoType(photoType)
	p.BlurHash = blurHash.String

	var err error
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddPhoto inserts a photo reference.
// Returns store.ErrPacketLotNotFound if the lot does not exist.
func (s *Store) AddPhoto(ctx context.Context, p *domain.Photo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.PacketLotID,
		p.URI,
		string(p.Type),
		nullString(p.BlurHash),
		formatTime(p.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrPacketLotNotFound
		}
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhoto retrieves a photo by ID.
func (s *Store) GetPhoto(ctx context.Context, photoID string) (*domain.Photo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, photoID)

	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// DeletePhoto removes a photo reference.
func (s *Store) DeletePhoto(ctx context.Context, photoID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, photoID)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return requireAffected(result, store.ErrPhotoNotFound)
}
