package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type regularizationRepositoryImpl struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) regularization.RegularizationRepository {
	return &regularizationRepositoryImpl{db: db}
}

const regularizationColumns = `
	r.id, r.employee_id, r.date, r.reason, r.type, r.from_time, r.to_time, r.status,
	r.photo_url, r.latitude, r.longitude, r.reviewed_by, r.reviewed_at, r.review_remark,
	r.created_at, r.updated_at, e.full_name`

const regularizationFrom = `
	FROM regularizations r
	LEFT JOIN employees e ON e.id = r.employee_id`

func scanRegularization(row pgx.Row) (regularization.Regularization, error) {
	var (
		reg            regularization.Regularization
		regType, state string
	)

	err := row.Scan(
		&reg.ID, &reg.EmployeeID, &reg.Date, &reg.Reason, &regType, &reg.FromTime, &reg.ToTime, &state,
		&reg.PhotoURL, &reg.Latitude, &reg.Longitude, &reg.ReviewedBy, &reg.ReviewedAt, &reg.ReviewRemark,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.EmployeeName,
	)
	if err != nil {
		return regularization.Regularization{}, err
	}

	reg.Type = regularization.Type(regType)
	reg.Status = regularization.Status(state)
	reg.Date = attendance.DayOf(reg.Date)
	return reg, nil
}

// Create implements regularization.RegularizationRepository.
func (r *regularizationRepositoryImpl) Create(ctx context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	if reg.ID == "" {
		id, err := newUUID()
		if err != nil {
			return regularization.Regularization{}, err
		}
		reg.ID = id
	}

	query := `
		INSERT INTO regularizations (
			id, employee_id, date, reason, type, from_time, to_time, status,
			photo_url, latitude, longitude
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := q.Exec(ctx, query,
		reg.ID, reg.EmployeeID, attendance.DayOf(reg.Date), reg.Reason, string(reg.Type),
		reg.FromTime, reg.ToTime, string(regularization.StatusPending),
		reg.PhotoURL, reg.Latitude, reg.Longitude,
	)
	if err != nil {
		return regularization.Regularization{}, fmt.Errorf("failed to create regularization: %w", err)
	}

	return r.GetByID(ctx, reg.ID)
}

// GetByID implements regularization.RegularizationRepository.
func (r *regularizationRepositoryImpl) GetByID(ctx context.Context, id string) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + regularizationFrom + ` WHERE r.id = $1`

	reg, err := scanRegularization(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return regularization.Regularization{}, regularization.ErrRegularizationNotFound
		}
		return regularization.Regularization{}, fmt.Errorf("failed to get regularization with id %s: %w", id, err)
	}

	return reg, nil
}

// List implements regularization.RegularizationRepository.
func (r *regularizationRepositoryImpl) List(ctx context.Context, filter regularization.RegularizationFilter) ([]regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	argIndex := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("r.employee_id = $%d", argIndex))
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	query := `SELECT ` + regularizationColumns + regularizationFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query regularizations: %w", err)
	}
	defer rows.Close()

	regs := []regularization.Regularization{}
	for rows.Next() {
		reg, err := scanRegularization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regularization: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// ApplyReview implements regularization.RegularizationRepository.
func (r *regularizationRepositoryImpl) ApplyReview(ctx context.Context, review regularization.Review) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE regularizations SET
			status = $2,
			reviewed_by = $3,
			reviewed_at = $4,
			review_remark = $5,
			from_time = COALESCE($6, from_time),
			to_time = COALESCE($7, to_time),
			updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		review.ID, string(review.Status), review.ReviewedBy, review.ReviewedAt.UTC(),
		review.Remark, review.FromTime, review.ToTime,
	).Scan(&id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return regularization.Regularization{}, fmt.Errorf("failed to review regularization: %w", err)
		}
		if _, getErr := r.GetByID(ctx, review.ID); getErr != nil {
			return regularization.Regularization{}, getErr
		}
		return regularization.Regularization{}, regularization.ErrAlreadyProcessed
	}

	return r.GetByID(ctx, id)
}

// Delete implements regularization.RegularizationRepository.
func (r *regularizationRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	cmdTag, err := q.Exec(ctx, `DELETE FROM regularizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete regularization: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return regularization.ErrRegularizationNotFound
	}

	return nil
}
