package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

// plantColumns is the ordered list of columns selected in plant queries.
// Must match the scan order in scanPlant.
const plantColumns = `id, botanical_name, common_name, variety, plant_type, light_requirement,
	indoor_outdoor, description, medicinal_uses, culinary_uses, growing_instructions, notes,
	created_at, updated_at`

func scanPlant(scanner interface{ Scan(dest ...any) error }) (*domain.Plant, error) {
	var (
		p         domain.Plant
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&p.ID,
		&p.BotanicalName,
		&p.CommonName,
		&p.Variety,
		&p.PlantType,
		&p.LightRequirement,
		&p.IndoorOutdoor,
		&p.Description,
		&p.MedicinalUses,
		&p.CulinaryUses,
		&p.GrowingInstructions,
		&p.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// CreatePlant inserts a new plant.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreatePlant(ctx context.Context, p *domain.Plant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plants (`+plantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.BotanicalName,
		p.CommonName,
		p.Variety,
		p.PlantType,
		p.LightRequirement,
		p.IndoorOutdoor,
		p.Description,
		p.MedicinalUses,
		p.CulinaryUses,
		p.GrowingInstructions,
		p.Notes,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert plant: %w", err)
	}
	return nil
}

// GetPlant retrieves a plant by ID.
// Returns store.ErrPlantNotFound if it does not exist.
func (s *Store) GetPlant(ctx context.Context, plantID string) (*domain.Plant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = ?`, plantID)

	p, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPlantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return p, nil
}

// UpdatePlant overwrites every editable column of an existing plant.
// CreatedAt is never changed. Returns store.ErrPlantNotFound if it does not exist.
func (s *Store) UpdatePlant(ctx context.Context, p *domain.Plant) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE plants SET
			botanical_name = ?,
			common_name = ?,
			variety = ?,
			plant_type = ?,
			light_requirement = ?,
			indoor_outdoor = ?,
			description = ?,
			medicinal_uses = ?,
			culinary_uses = ?,
			growing_instructions = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?`,
		p.BotanicalName,
		p.CommonName,
		p.Variety,
		p.PlantType,
		p.LightRequirement,
		p.IndoorOutdoor,
		p.Description,
		p.MedicinalUses,
		p.CulinaryUses,
		p.GrowingInstructions,
		p.Notes,
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update plant: %w", err)
	}
	return requireAffected(result, store.ErrPlantNotFound)
}

// DeletePlant removes a plant. Its packet lots, photos, notes and source
// attributions go with it through foreign key cascades.
// Returns store.ErrPlantNotFound if it does not exist.
func (s *Store) DeletePlant(ctx context.Context, plantID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, plantID)
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	return requireAffected(result, store.ErrPlantNotFound)
}

// ListPlants returns plants matching the column filters in f, ordered by
// common name. f.Query is ignored here; free-text search happens in the
// search index, which hands its hits over as ids. A nil ids slice means no
// restriction, an empty one matches nothing.
func (s *Store) ListPlants(ctx context.Context, f domain.PlantFilter, ids []string) ([]*domain.Plant, error) {
	if ids != nil && len(ids) == 0 {
		return []*domain.Plant{}, nil
	}

	var (
		where []string
		args  []any
	)
	if f.PlantType != "" {
		where = append(where, "plant_type = ?")
		args = append(args, f.PlantType)
	}
	if f.LightRequirement != "" {
		where = append(where, "light_requirement = ?")
		args = append(args, f.LightRequirement)
	}
	if f.IndoorOutdoor != "" {
		where = append(where, "indoor_outdoor = ?")
		args = append(args, f.IndoorOutdoor)
	}
	if ids != nil {
		where = append(where, "id IN ("+placeholders(len(ids))+")")
		for _, id := range ids {
			args = append(args, id)
		}
	}

	query := `SELECT ` + plantColumns + ` FROM plants`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY common_name COLLATE NOCASE, botanical_name COLLATE NOCASE, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plants: %w", err)
	}
	defer rows.Close()

	plants := []*domain.Plant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

// GetPlantFilterOptions returns the distinct non-empty values of each
// filterable column, sorted.
func (s *Store) GetPlantFilterOptions(ctx context.Context) (*domain.PlantFilterOptions, error) {
	plantTypes, err := s.distinctPlantValues(ctx, "plant_type")
	if err != nil {
		return nil, err
	}
	lights, err := s.distinctPlantValues(ctx, "light_requirement")
	if err != nil {
		return nil, err
	}
	indoorOutdoor, err := s.distinctPlantValues(ctx, "indoor_outdoor")
	if err != nil {
		return nil, err
	}

	return &domain.PlantFilterOptions{
		PlantTypes:           plantTypes,
		LightRequirements:    lights,
		IndoorOutdoorOptions: indoorOutdoor,
	}, nil
}

// distinctPlantValues reads one column. column is always a constant from
// GetPlantFilterOptions, never user input.
func (s *Store) distinctPlantValues(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM plants WHERE `+column+` != '' ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// CountPlants returns the number of plants in the catalog.
func (s *Store) CountPlants(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count plants: %w", err)
	}
	return n, nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
