package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

const blockColumns = `id, equipment_id, start_at_utc, end_at_utc, reason, COALESCE(notes, ''), created_by, created_at, updated_at`

type blockRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewBlockRepository(db *sql.DB, timeout time.Duration) repository.BlockRepository {
	return &blockRepository{db: db, timeout: timeout}
}

func scanBlock(s rowScanner) (*domain.AvailabilityBlock, error) {
	b := &domain.AvailabilityBlock{}
	err := s.Scan(&b.ID, &b.EquipmentID, &b.Interval.Start, &b.Interval.End, &b.Reason, &b.Notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Interval.Start = b.Interval.Start.UTC()
	b.Interval.End = b.Interval.End.UTC()
	return b, nil
}

func (r *blockRepository) GetByID(ctx context.Context, id string) (*domain.AvailabilityBlock, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + blockColumns + ` FROM availability_blocks WHERE id = $1`
	b, err := scanBlock(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "availability block", ID: id}
	}
	if err != nil {
		return nil, mapError("availability_blocks.get", err)
	}
	return b, nil
}

func (r *blockRepository) List(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + blockColumns + ` FROM availability_blocks
	          WHERE equipment_id = $1 AND start_at_utc < $3 AND end_at_utc > $2
	          ORDER BY start_at_utc ASC`
	logger.DatabaseCall("availability_blocks.list", query, "equipment_id", equipmentID, "window", window.String())
	rows, err := r.db.QueryContext(ctx, query, equipmentID, window.Start, window.End)
	if err != nil {
		logger.DatabaseResult("availability_blocks.list", 0, err)
		return nil, mapError("availability_blocks.list", err)
	}
	defer rows.Close()

	var blocks []domain.AvailabilityBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, mapError("availability_blocks.list", err)
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("availability_blocks.list", err)
	}
	logger.DatabaseResult("availability_blocks.list", int64(len(blocks)), nil)
	return blocks, nil
}

func (r *blockRepository) Create(ctx context.Context, b *domain.AvailabilityBlock) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO availability_blocks (id, equipment_id, start_at_utc, end_at_utc, reason, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.EquipmentID, b.Interval.Start, b.Interval.End, b.Reason, b.Notes, b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	return mapError("availability_blocks.create", err)
}

func (r *blockRepository) UpdateInterval(ctx context.Context, id string, interval domain.Interval) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE availability_blocks SET start_at_utc = $1, end_at_utc = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, interval.Start, interval.End, time.Now().UTC(), id)
	if err != nil {
		return mapError("availability_blocks.update_interval", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "availability block", ID: id}
	}
	return nil
}

// Delete succeeds whether or not the row existed.
func (r *blockRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM availability_blocks WHERE id = $1`, id)
	return mapError("availability_blocks.delete", err)
}

func (r *blockRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time, keep []domain.BlockReason) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	reasons := make([]string, len(keep))
	for i, k := range keep {
		reasons[i] = string(k)
	}
	query := `DELETE FROM availability_blocks WHERE end_at_utc < $1 AND NOT (reason = ANY($2)) RETURNING equipment_id`
	rows, err := r.db.QueryContext(ctx, query, cutoff, pq.Array(reasons))
	if err != nil {
		return nil, mapError("availability_blocks.delete_ended_before", err)
	}
	defer rows.Close()

	var equipmentIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("availability_blocks.delete_ended_before", err)
		}
		equipmentIDs = append(equipmentIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("availability_blocks.delete_ended_before", err)
	}
	logger.DatabaseResult("availability_blocks.delete_ended_before", int64(len(equipmentIDs)), nil)
	return equipmentIDs, nil
}
