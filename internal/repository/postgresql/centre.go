package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type centreRepositoryImpl struct {
	db *database.DB
}

func NewCentreRepository(db *database.DB) centre.CentreRepository {
	return &centreRepositoryImpl{db: db}
}

// GetByID implements centre.CentreRepository.
func (r *centreRepositoryImpl) GetByID(ctx context.Context, id string) (centre.Centre, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, address, latitude, longitude, created_at, updated_at
		FROM centres
		WHERE id = $1
	`

	var c centre.Centre
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return centre.Centre{}, centre.ErrCentreNotFound
		}
		return centre.Centre{}, fmt.Errorf("failed to get centre with id %s: %w", id, err)
	}

	return c, nil
}
