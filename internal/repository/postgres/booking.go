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

const bookingColumns = `id, booking_number, equipment_id, customer_id, start_at_utc, end_at_utc, status,
	daily_rate_cents, weekly_rate_cents, monthly_rate_cents, seasonal_multiplier,
	subtotal_cents, delivery_fee_cents, float_fee_cents, taxes_cents, total_amount_cents, security_deposit_cents,
	stripe_payment_intent_id, stripe_hold_intent_id, created_at, updated_at`

// conflictCountQuery counts occupying bookings and blocks that overlap [$2, $3).
// $4 is the terminal status set, matching the bookings_no_overlap predicate.
const conflictCountQuery = `SELECT
	(SELECT count(*) FROM bookings
	  WHERE equipment_id = $1 AND start_at_utc < $3 AND end_at_utc > $2
	    AND status <> ALL($4) AND id <> $5),
	(SELECT count(*) FROM availability_blocks
	  WHERE equipment_id = $1 AND start_at_utc < $3 AND end_at_utc > $2)`

type bookingRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewBookingRepository(db *sql.DB, timeout time.Duration) repository.BookingRepository {
	return &bookingRepository{db: db, timeout: timeout}
}

func scanBooking(s rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := s.Scan(&b.ID, &b.BookingNumber, &b.EquipmentID, &b.CustomerID, &b.Interval.Start, &b.Interval.End, &b.Status,
		&b.DailyRate, &b.WeeklyRate, &b.MonthlyRate, &b.SeasonalMultiplier,
		&b.Subtotal, &b.DeliveryFee, &b.FloatFee, &b.Taxes, &b.TotalAmount, &b.SecurityDeposit,
		&b.StripePaymentIntentID, &b.StripeHoldIntentID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Interval.Start = b.Interval.Start.UTC()
	b.Interval.End = b.Interval.End.UTC()
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	if err != nil {
		return nil, mapError("bookings.get", err)
	}
	return b, nil
}

func (r *bookingRepository) ListOccupying(ctx context.Context, equipmentID string, window domain.Interval, excludeBookingID string) ([]domain.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE equipment_id = $1 AND start_at_utc < $3 AND end_at_utc > $2
	            AND status <> ALL($4) AND id <> $5
	          ORDER BY start_at_utc ASC`
	logger.DatabaseCall("bookings.list_occupying", query, "equipment_id", equipmentID, "window", window.String())
	rows, err := r.db.QueryContext(ctx, query, equipmentID, window.Start, window.End,
		pq.Array(statusStrings(domain.TerminalStatuses())), excludeBookingID)
	if err != nil {
		logger.DatabaseResult("bookings.list_occupying", 0, err)
		return nil, mapError("bookings.list_occupying", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError("bookings.list_occupying", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("bookings.list_occupying", err)
	}
	logger.DatabaseResult("bookings.list_occupying", int64(len(bookings)), nil)
	return bookings, nil
}

// ensureFree re-reads the conflict set inside tx. Blocks and occupying bookings
// overlapping guard make the write fail with OverlapError.
func ensureFree(ctx context.Context, tx *sql.Tx, equipmentID string, guard domain.Interval, excludeID string) error {
	var bookings, blocks int64
	err := tx.QueryRowContext(ctx, conflictCountQuery, equipmentID, guard.Start, guard.End,
		pq.Array(statusStrings(domain.TerminalStatuses())), excludeID).Scan(&bookings, &blocks)
	if err != nil {
		return err
	}
	if bookings > 0 || blocks > 0 {
		return &domain.OverlapError{EquipmentID: equipmentID, Interval: guard, Detail: "equipment is not available"}
	}
	return nil
}

func (r *bookingRepository) CreateExclusive(ctx context.Context, b *domain.Booking, guard domain.Interval) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO bookings (` + bookingColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	err := inSerializableTx(ctx, r.db, "bookings.create", func(tx *sql.Tx) error {
		if err := ensureFree(ctx, tx, b.EquipmentID, guard, b.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query, b.ID, b.BookingNumber, b.EquipmentID, b.CustomerID, b.Interval.Start, b.Interval.End, b.Status,
			b.DailyRate, b.WeeklyRate, b.MonthlyRate, b.SeasonalMultiplier,
			b.Subtotal, b.DeliveryFee, b.FloatFee, b.Taxes, b.TotalAmount, b.SecurityDeposit,
			b.StripePaymentIntentID, b.StripeHoldIntentID, b.CreatedAt, b.UpdatedAt)
		return err
	})
	var overlap *domain.OverlapError
	if errors.As(err, &overlap) && overlap.EquipmentID == "" {
		overlap.EquipmentID, overlap.Interval = b.EquipmentID, b.Interval
	}
	return err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return mapError("bookings.update_status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}
	return nil
}

func (r *bookingRepository) UpdateInterval(ctx context.Context, id string, interval domain.Interval, guard domain.Interval) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	return inSerializableTx(ctx, r.db, "bookings.update_interval", func(tx *sql.Tx) error {
		var equipmentID string
		err := tx.QueryRowContext(ctx, `SELECT equipment_id FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&equipmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Entity: "booking", ID: id}
		}
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, equipmentID, guard, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE bookings SET start_at_utc = $1, end_at_utc = $2, updated_at = $3 WHERE id = $4`,
			interval.Start, interval.End, time.Now().UTC(), id)
		return err
	})
}

func (r *bookingRepository) ListStalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = $1 AND created_at < $2
	          ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, domain.BookingStatusPending, createdBefore)
	if err != nil {
		return nil, mapError("bookings.list_stale_pending", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError("bookings.list_stale_pending", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("bookings.list_stale_pending", err)
	}
	return bookings, nil
}
