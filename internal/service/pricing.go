package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

// DepositPolicy decides the security hold for a unit.
type DepositPolicy interface {
	Deposit(e *domain.Equipment) int64
}

// ReplacementValueDeposit holds Rate × replacement value, never less than Minimum.
type ReplacementValueDeposit struct {
	Minimum int64
	Rate    float64
}

func (p ReplacementValueDeposit) Deposit(e *domain.Equipment) int64 {
	return max(p.Minimum, utils.ApplyMultiplier(e.ReplacementValue, p.Rate))
}

type pricingService struct {
	repos   repository.Repositories
	cfg     config.PricingConfig
	deposit DepositPolicy
}

// NewPricingService builds the calculator. A nil deposit policy uses the
// configured minimum and rate.
func NewPricingService(repos repository.Repositories, cfg config.PricingConfig, deposit DepositPolicy) PricingService {
	if deposit == nil {
		deposit = ReplacementValueDeposit{Minimum: cfg.MinimumDepositCents, Rate: cfg.DepositRate}
	}
	return &pricingService{repos: repos, cfg: cfg, deposit: deposit}
}

func (s *pricingService) taxRate(jurisdiction string) float64 {
	if r, ok := s.cfg.TaxRates[jurisdiction]; ok && jurisdiction != "" {
		return r
	}
	return s.cfg.DefaultTaxRate
}

func (s *pricingService) deliveryFees(city string) (delivery, float int64) {
	if city == "" {
		return 0, 0
	}
	delivery, ok := s.cfg.DeliveryFees[city]
	if !ok {
		delivery = s.cfg.DefaultDeliveryFee
	}
	return delivery, s.cfg.FloatFee
}

func (s *pricingService) CalculatePricing(ctx context.Context, req PricingRequest) (*PriceBreakdown, error) {
	logger.EnterMethod("pricingService.CalculatePricing", "equipmentID", req.EquipmentID, "interval", req.Interval.String())
	ctx, span := startSpan(ctx, "pricing.calculate", req.EquipmentID, req.Interval)

	p, err := s.calculate(ctx, req)
	endSpan(span, err)
	if err != nil {
		logger.ExitMethodWithError("pricingService.CalculatePricing", err, "equipmentID", req.EquipmentID)
		return nil, err
	}
	logger.ExitMethod("pricingService.CalculatePricing", "equipmentID", req.EquipmentID, "days", p.Days, "total", p.TotalAmount)
	return p, nil
}

func (s *pricingService) calculate(ctx context.Context, req PricingRequest) (*PriceBreakdown, error) {
	if req.EquipmentID == "" {
		return nil, domain.ErrMissingEquipmentID
	}
	if !req.Interval.Start.Before(req.Interval.End) {
		return nil, fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidInterval,
			req.Interval.Start.Format(time.RFC3339), req.Interval.End.Format(time.RFC3339))
	}

	equipment, err := s.repos.Equipment.GetByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}

	multiplier, season := 1.0, ""
	sp, err := s.repos.Seasons.QueryActive(ctx, equipment.Type, req.Interval.Start)
	if err != nil {
		return nil, err
	}
	if sp != nil && sp.AppliesOn(req.Interval.Start) && sp.Multiplier > 0 {
		multiplier, season = sp.Multiplier, sp.Name
	}

	rates := equipment.EffectiveRates()
	days := req.Interval.Days()
	tiers := utils.BlendedRate(days, rates)

	p := &PriceBreakdown{
		EquipmentID:        equipment.ID,
		Interval:           req.Interval,
		Days:               days,
		DailyRate:          rates.Daily,
		WeeklyRate:         rates.Weekly,
		MonthlyRate:        rates.Monthly,
		Tiers:              tiers,
		SeasonalMultiplier: multiplier,
		Season:             season,
		Subtotal:           utils.ApplyMultiplier(tiers.TotalCost, multiplier),
		TaxRate:            s.taxRate(req.Jurisdiction),
		SecurityDeposit:    s.deposit.Deposit(equipment),
	}
	p.DeliveryFee, p.FloatFee = s.deliveryFees(req.DeliveryCity)
	taxable := p.Subtotal + p.DeliveryFee + p.FloatFee
	p.Taxes = int64(math.Round(float64(taxable) * p.TaxRate))
	p.TotalAmount = taxable + p.Taxes
	return p, nil
}
