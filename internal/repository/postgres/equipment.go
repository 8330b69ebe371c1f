package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type equipmentRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewEquipmentRepository(db *sql.DB, timeout time.Duration) repository.EquipmentRepository {
	return &equipmentRepository{db: db, timeout: timeout}
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	e := &domain.Equipment{}
	var before, after sql.NullInt64
	query := `SELECT id, unit_id, type, make, model, status, daily_rate_cents, weekly_rate_cents, monthly_rate_cents,
	          hourly_rate_cents, overage_hourly_rate_cents, daily_hour_allowance, weekly_hour_allowance,
	          minimum_rental_hours, replacement_value_cents, buffer_before_minutes, buffer_after_minutes
	          FROM equipment WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.UnitID, &e.Type, &e.Make, &e.Model, &e.Status,
		&e.DailyRate, &e.WeeklyRate, &e.MonthlyRate, &e.HourlyRate, &e.OverageHourlyRate,
		&e.DailyHourAllowance, &e.WeeklyHourAllowance, &e.MinimumRentalHours, &e.ReplacementValue, &before, &after)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "equipment", ID: id}
	}
	if err != nil {
		return nil, mapError("equipment.get", err)
	}
	e.BufferBefore = minutesPtr(before)
	e.BufferAfter = minutesPtr(after)
	return e, nil
}
