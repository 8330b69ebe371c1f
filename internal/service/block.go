package service

import (
	"context"
	"fmt"
	"time"

	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"github.com/google/uuid"
)

type blockService struct {
	repos repository.Repositories
	cache cache.VerdictCache
	cfg   config.AvailabilityConfig
	clock Clock
}

func NewBlockService(repos repository.Repositories, vc cache.VerdictCache, cfg config.AvailabilityConfig, clock Clock) BlockService {
	if vc == nil {
		vc = cache.Nop{}
	}
	return &blockService{repos: repos, cache: vc, cfg: cfg, clock: clock}
}

func validInterval(iv domain.Interval) error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidInterval,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

func (s *blockService) ListBlocks(ctx context.Context, equipmentID string, window domain.Interval) ([]domain.AvailabilityBlock, error) {
	if equipmentID == "" {
		return nil, domain.ErrMissingEquipmentID
	}
	if err := validInterval(window); err != nil {
		return nil, err
	}
	return s.repos.Blocks.List(ctx, equipmentID, window)
}

// ListBlocksForEquipment returns everything from now until the search horizon, for the admin calendar.
func (s *blockService) ListBlocksForEquipment(ctx context.Context, equipmentID string) ([]domain.AvailabilityBlock, error) {
	horizon := s.cfg.NextAvailableHorizon
	if horizon <= 0 {
		horizon = 365 * 24 * time.Hour
	}
	now := s.clock.now()
	return s.ListBlocks(ctx, equipmentID, domain.Interval{Start: now, End: now.Add(horizon)})
}

// sameReasonOverlap enforces the strict policy: no two blocks of one reason may overlap.
func (s *blockService) sameReasonOverlap(ctx context.Context, equipmentID string, iv domain.Interval, reason domain.BlockReason, selfID string) error {
	if !s.cfg.StrictBlockOverlap {
		return nil
	}
	existing, err := s.repos.Blocks.List(ctx, equipmentID, iv)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.ID != selfID && b.Reason == reason {
			return &domain.OverlapError{EquipmentID: equipmentID, Interval: iv,
				Detail: fmt.Sprintf("%s block %s already covers part of this interval", reason, b.ID)}
		}
	}
	return nil
}

func (s *blockService) CreateBlock(ctx context.Context, equipmentID string, interval domain.Interval, reason domain.BlockReason, notes, createdBy string) (*domain.AvailabilityBlock, error) {
	logger.EnterMethod("blockService.CreateBlock", "equipmentID", equipmentID, "interval", interval.String(), "reason", reason)

	block, err := s.create(ctx, equipmentID, interval, reason, notes, createdBy)
	if err != nil {
		logger.ExitMethodWithError("blockService.CreateBlock", err, "equipmentID", equipmentID)
		return nil, err
	}
	s.cache.Invalidate(ctx, equipmentID)

	logger.ExitMethod("blockService.CreateBlock", "blockID", block.ID)
	return block, nil
}

func (s *blockService) create(ctx context.Context, equipmentID string, interval domain.Interval, reason domain.BlockReason, notes, createdBy string) (*domain.AvailabilityBlock, error) {
	if equipmentID == "" {
		return nil, domain.ErrMissingEquipmentID
	}
	if err := validInterval(interval); err != nil {
		return nil, err
	}
	reason, err := domain.ParseBlockReason(string(reason))
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}
	if err := s.sameReasonOverlap(ctx, equipmentID, interval, reason, ""); err != nil {
		return nil, err
	}

	now := s.clock.now()
	block := &domain.AvailabilityBlock{
		ID:          uuid.New().String(),
		EquipmentID: equipmentID,
		Interval:    domain.Interval{Start: interval.Start.UTC(), End: interval.End.UTC()},
		Reason:      reason,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if createdBy != "" {
		block.CreatedBy = &createdBy
	}
	if err := s.repos.Blocks.Create(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *blockService) ResizeBlock(ctx context.Context, blockID string, interval domain.Interval) (*domain.AvailabilityBlock, error) {
	logger.EnterMethod("blockService.ResizeBlock", "blockID", blockID, "interval", interval.String())

	if err := validInterval(interval); err != nil {
		logger.ExitMethodWithError("blockService.ResizeBlock", err, "blockID", blockID)
		return nil, err
	}
	block, err := s.repos.Blocks.GetByID(ctx, blockID)
	if err != nil {
		logger.ExitMethodWithError("blockService.ResizeBlock", err, "blockID", blockID)
		return nil, err
	}
	if err := s.sameReasonOverlap(ctx, block.EquipmentID, interval, block.Reason, block.ID); err != nil {
		logger.ExitMethodWithError("blockService.ResizeBlock", err, "blockID", blockID)
		return nil, err
	}
	if err := s.repos.Blocks.UpdateInterval(ctx, blockID, interval); err != nil {
		logger.ExitMethodWithError("blockService.ResizeBlock", err, "blockID", blockID)
		return nil, err
	}
	s.cache.Invalidate(ctx, block.EquipmentID)

	block.Interval = interval
	block.UpdatedAt = s.clock.now()
	logger.ExitMethod("blockService.ResizeBlock", "blockID", blockID)
	return block, nil
}

// DeleteBlock is idempotent: an unknown id is a successful no-op.
func (s *blockService) DeleteBlock(ctx context.Context, blockID string) error {
	logger.EnterMethod("blockService.DeleteBlock", "blockID", blockID)

	block, err := s.repos.Blocks.GetByID(ctx, blockID)
	if domain.IsNotFound(err) {
		logger.ExitMethod("blockService.DeleteBlock", "blockID", blockID, "existed", false)
		return nil
	}
	if err != nil {
		logger.ExitMethodWithError("blockService.DeleteBlock", err, "blockID", blockID)
		return err
	}
	if err := s.repos.Blocks.Delete(ctx, blockID); err != nil {
		logger.ExitMethodWithError("blockService.DeleteBlock", err, "blockID", blockID)
		return err
	}
	s.cache.Invalidate(ctx, block.EquipmentID)

	logger.ExitMethod("blockService.DeleteBlock", "blockID", blockID, "existed", true)
	return nil
}

// PurgeEndedBlocks drops blocks that ended before now-retention. Booked
// blocks are kept as booking history. A buffer wider than retention can still
// reach a purged block, so every touched unit is invalidated.
func (s *blockService) PurgeEndedBlocks(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.clock.now().Add(-retention)
	equipmentIDs, err := s.repos.Blocks.DeleteEndedBefore(ctx, cutoff, []domain.BlockReason{domain.BlockReasonBooked})
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(equipmentIDs))
	for _, id := range equipmentIDs {
		if !seen[id] {
			seen[id] = true
			s.cache.Invalidate(ctx, id)
		}
	}
	n := int64(len(equipmentIDs))
	logger.Info("Purged ended availability blocks", "cutoff", cutoff, "deleted", n, "equipment", len(seen))
	return n, nil
}
