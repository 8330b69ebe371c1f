package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateBlock(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	vc := newRecordingCache()
	svc := NewBlockService(store.Repositories(), vc, availabilityConfig(), fixedClock)
	avail := NewAvailabilityService(store.Repositories(), nil, availabilityConfig(), fixedClock)

	t.Run("Success", func(t *testing.T) {
		b, err := svc.CreateBlock(ctx, "eq-1", iv(jun(5), jun(8)), domain.BlockReasonMaintenance, "hydraulic service", "admin-1")
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		require.NotNil(t, b.CreatedBy)
		assert.Equal(t, "admin-1", *b.CreatedBy)
		assert.Equal(t, []string{"eq-1"}, vc.invalidated)

		v, err := avail.CheckAvailability(ctx, "eq-1", iv(jun(6), jun(7)), "")
		require.NoError(t, err)
		assert.False(t, v.IsAvailable)
		assert.Equal(t, []domain.Interval{iv(jun(5), jun(8))}, v.BlackoutDates)
	})

	t.Run("Empty creator", func(t *testing.T) {
		b, err := svc.CreateBlock(ctx, "eq-1", iv(jun(20), jun(21)), domain.BlockReasonReserved, "", "")
		require.NoError(t, err)
		assert.Nil(t, b.CreatedBy)
	})

	t.Run("Overlapping blocks are allowed by default", func(t *testing.T) {
		_, err := svc.CreateBlock(ctx, "eq-1", iv(jun(6), jun(9)), domain.BlockReasonMaintenance, "", "")
		assert.NoError(t, err)
	})

	t.Run("Unknown reason", func(t *testing.T) {
		_, err := svc.CreateBlock(ctx, "eq-1", iv(jun(5), jun(8)), domain.BlockReason("holiday"), "", "")
		assert.True(t, domain.IsInvalidRequest(err))
	})

	t.Run("Inverted interval", func(t *testing.T) {
		_, err := svc.CreateBlock(ctx, "eq-1", domain.Interval{Start: jun(8), End: jun(5)}, domain.BlockReasonMaintenance, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
	})

	t.Run("Unknown equipment", func(t *testing.T) {
		_, err := svc.CreateBlock(ctx, "eq-404", iv(jun(5), jun(8)), domain.BlockReasonMaintenance, "", "")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Missing equipment id", func(t *testing.T) {
		_, err := svc.CreateBlock(ctx, "", iv(jun(5), jun(8)), domain.BlockReasonMaintenance, "", "")
		assert.ErrorIs(t, err, domain.ErrMissingEquipmentID)
	})
}

func TestCreateBlock_StrictOverlap(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	cfg := availabilityConfig()
	cfg.StrictBlockOverlap = true
	svc := NewBlockService(store.Repositories(), nil, cfg, fixedClock)

	first, err := svc.CreateBlock(ctx, "eq-1", iv(jun(5), jun(8)), domain.BlockReasonMaintenance, "", "")
	require.NoError(t, err)

	_, err = svc.CreateBlock(ctx, "eq-1", iv(jun(7), jun(9)), domain.BlockReasonMaintenance, "", "")
	assert.True(t, domain.IsOverlap(err))

	_, err = svc.CreateBlock(ctx, "eq-1", iv(jun(7), jun(9)), domain.BlockReasonBlackout, "", "")
	assert.NoError(t, err)

	_, err = svc.CreateBlock(ctx, "eq-1", iv(jun(8), jun(9)), domain.BlockReasonMaintenance, "", "")
	assert.NoError(t, err, "touching blocks do not overlap")

	t.Run("Resize ignores itself", func(t *testing.T) {
		b, err := svc.ResizeBlock(ctx, first.ID, iv(jun(4), jun(7)))
		require.NoError(t, err)
		assert.Equal(t, iv(jun(4), jun(7)), b.Interval)
	})

	t.Run("Resize into a sibling", func(t *testing.T) {
		_, err := svc.ResizeBlock(ctx, first.ID, iv(jun(4), jun(9)))
		assert.True(t, domain.IsOverlap(err))
	})
}

func TestResizeBlock(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	vc := newRecordingCache()
	svc := NewBlockService(store.Repositories(), vc, availabilityConfig(), fixedClock)

	b, err := svc.CreateBlock(ctx, "eq-1", iv(jun(5), jun(8)), domain.BlockReasonMaintenance, "", "")
	require.NoError(t, err)

	got, err := svc.ResizeBlock(ctx, b.ID, iv(jun(5), jun(10)))
	require.NoError(t, err)
	assert.Equal(t, iv(jun(5), jun(10)), got.Interval)
	assert.Len(t, vc.invalidated, 2)

	blocks, err := svc.ListBlocks(ctx, "eq-1", iv(jun(9), jun(11)))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, b.ID, blocks[0].ID)

	_, err = svc.ResizeBlock(ctx, "missing", iv(jun(5), jun(10)))
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.ResizeBlock(ctx, b.ID, domain.Interval{Start: jun(5), End: jun(5)})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestDeleteBlock(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	vc := newRecordingCache()
	svc := NewBlockService(store.Repositories(), vc, availabilityConfig(), fixedClock)

	b, err := svc.CreateBlock(ctx, "eq-1", iv(jun(5), jun(8)), domain.BlockReasonBlackout, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBlock(ctx, b.ID))
	require.NoError(t, svc.DeleteBlock(ctx, b.ID))
	assert.Len(t, vc.invalidated, 2, "second delete is a no-op")

	blocks, err := svc.ListBlocks(ctx, "eq-1", iv(jun(1), jun(30)))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestDeleteBlock_StoreError(t *testing.T) {
	blocks := new(MockBlockRepo)
	storeErr := &domain.StoreError{Op: "get availability block", Err: errors.New("connection reset")}
	blocks.On("GetByID", mock.Anything, "blk-1").Return(nil, storeErr)

	svc := NewBlockService(repos(nil, nil, blocks, nil), nil, availabilityConfig(), fixedClock)
	err := svc.DeleteBlock(context.Background(), "blk-1")
	assert.True(t, domain.IsStoreError(err))
	blocks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestListBlocks(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	svc := NewBlockService(store.Repositories(), nil, availabilityConfig(), fixedClock)

	for _, w := range []domain.Interval{iv(jun(1), jun(3)), iv(jul(1), jul(3)), iv(testNow.AddDate(2, 0, 0), testNow.AddDate(2, 0, 2))} {
		_, err := svc.CreateBlock(ctx, "eq-1", w, domain.BlockReasonMaintenance, "", "")
		require.NoError(t, err)
	}

	t.Run("Window", func(t *testing.T) {
		blocks, err := svc.ListBlocks(ctx, "eq-1", iv(jun(2), jun(30)))
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, iv(jun(1), jun(3)), blocks[0].Interval)
	})

	t.Run("Calendar stops at the horizon", func(t *testing.T) {
		blocks, err := svc.ListBlocksForEquipment(ctx, "eq-1")
		require.NoError(t, err)
		assert.Len(t, blocks, 2)
	})

	t.Run("Missing equipment id", func(t *testing.T) {
		_, err := svc.ListBlocks(ctx, "", iv(jun(1), jun(30)))
		assert.ErrorIs(t, err, domain.ErrMissingEquipmentID)
	})
}

func TestPurgeEndedBlocks(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	vc := newRecordingCache()
	svc := NewBlockService(store.Repositories(), vc, availabilityConfig(), fixedClock)

	longAgo := iv(testNow.AddDate(0, -3, 0), testNow.AddDate(0, -3, 2))
	for _, reason := range []domain.BlockReason{domain.BlockReasonMaintenance, domain.BlockReasonBooked} {
		_, err := svc.CreateBlock(ctx, "eq-1", longAgo, reason, "", "")
		require.NoError(t, err)
	}
	_, err := svc.CreateBlock(ctx, "eq-1", iv(testNow.Add(-48*time.Hour), testNow.Add(-24*time.Hour)), domain.BlockReasonBlackout, "", "")
	require.NoError(t, err)

	vc.invalidated = nil
	n, err := svc.PurgeEndedBlocks(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"eq-1"}, vc.invalidated)

	remaining, err := svc.ListBlocks(ctx, "eq-1", iv(testNow.AddDate(-1, 0, 0), testNow))
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	reasons := []domain.BlockReason{remaining[0].Reason, remaining[1].Reason}
	assert.ElementsMatch(t, []domain.BlockReason{domain.BlockReasonBooked, domain.BlockReasonBlackout}, reasons)
}

func TestPurgeEndedBlocks_InvalidatesEachUnitOnce(t *testing.T) {
	ctx := context.Background()
	blocks := new(MockBlockRepo)
	vc := newRecordingCache()
	blocks.On("DeleteEndedBefore", mock.Anything, testNow.Add(-time.Hour), []domain.BlockReason{domain.BlockReasonBooked}).
		Return([]string{"eq-1", "eq-2", "eq-1"}, nil)

	svc := NewBlockService(repos(new(MockEquipmentRepo), new(MockBookingRepo), blocks, new(MockSeasonRepo)), vc, availabilityConfig(), fixedClock)
	n, err := svc.PurgeEndedBlocks(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"eq-1", "eq-2"}, vc.invalidated)

	t.Run("Store failure invalidates nothing", func(t *testing.T) {
		failing := new(MockBlockRepo)
		failing.On("DeleteEndedBefore", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &domain.StoreError{Op: "availability_blocks.delete_ended_before", Err: context.DeadlineExceeded})
		vc := newRecordingCache()
		svc := NewBlockService(repos(new(MockEquipmentRepo), new(MockBookingRepo), failing, new(MockSeasonRepo)), vc, availabilityConfig(), fixedClock)

		_, err := svc.PurgeEndedBlocks(ctx, time.Hour)
		assert.True(t, domain.IsStoreError(err))
		assert.Empty(t, vc.invalidated)
	})
}
