package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type seasonalPricingRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSeasonalPricingRepository(db *sql.DB, timeout time.Duration) repository.SeasonalPricingRepository {
	return &seasonalPricingRepository{db: db, timeout: timeout}
}

// QueryActive picks the most recently started window when several overlap.
func (r *seasonalPricingRepository) QueryActive(ctx context.Context, equipmentType string, date time.Time) (*domain.SeasonalPricing, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	s := &domain.SeasonalPricing{}
	query := `SELECT id, name, equipment_type, start_date, end_date, multiplier, is_active
	          FROM seasonal_pricing
	          WHERE equipment_type = $1 AND is_active AND start_date <= $2 AND end_date >= $2
	          ORDER BY start_date DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, equipmentType, domain.TruncateDay(date).Format("2006-01-02")).
		Scan(&s.ID, &s.Name, &s.EquipmentType, &s.StartDate, &s.EndDate, &s.Multiplier, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("seasonal_pricing.query_active", err)
	}
	return s, nil
}
