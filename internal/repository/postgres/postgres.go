package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.EquipmentRepository
	repository.BookingRepository
	repository.BlockRepository
	repository.SeasonalPricingRepository
}

// NewStore wires every repository onto db. Each call is bounded by timeout.
func NewStore(db *sql.DB, timeout time.Duration) *Store {
	return &Store{
		db:                        db,
		EquipmentRepository:       NewEquipmentRepository(db, timeout),
		BookingRepository:         NewBookingRepository(db, timeout),
		BlockRepository:           NewBlockRepository(db, timeout),
		SeasonalPricingRepository: NewSeasonalPricingRepository(db, timeout),
	}
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Equipment: s.EquipmentRepository,
		Bookings:  s.BookingRepository,
		Blocks:    s.BlockRepository,
		Seasons:   s.SeasonalPricingRepository,
	}
}

// Ping is used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("migrate", "schema.sql")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapError turns driver errors into the domain taxonomy.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsOverlap(err) || domain.IsInvalidRequest(err) || domain.IsNotFound(err) ||
		domain.IsSerializationConflict(err) || domain.IsStoreError(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23P01": // exclusion_violation
			return &domain.OverlapError{Detail: pqErr.Message}
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return &domain.SerializationConflictError{Err: err}
		case "23514", "22007", "22008": // check_violation, invalid datetime
			return domain.NewInvalidRequest("%s", pqErr.Message)
		}
	}
	return &domain.StoreError{Op: op, Err: err}
}

// inSerializableTx runs fn in a SERIALIZABLE transaction and commits on success.
func inSerializableTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapError(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return mapError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return mapError(op, err)
	}
	return nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func minutesPtr(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64) * time.Minute
	return &d
}
