package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository/memory"
	"equiprent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOpener(store *memory.Store) Opener {
	clock := func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }
	return func(ctx context.Context, configPath string) (*Backend, func(), error) {
		repos := store.Repositories()
		avCfg := config.AvailabilityConfig{NextAvailableHorizon: 365 * 24 * time.Hour, MaxRentalDays: 365, MaxAlternatives: 5}
		prCfg := config.PricingConfig{DefaultTaxRate: 0.15, DefaultDeliveryFee: 15000, MinimumDepositCents: 50000, DepositRate: 0.01}
		return &Backend{
			Availability: service.NewAvailabilityService(repos, nil, avCfg, clock),
			Blocks:       service.NewBlockService(repos, nil, avCfg, clock),
			Pricing:      service.NewPricingService(repos, prCfg, nil),
		}, func() {}, nil
	}
}

func run(t *testing.T, store *memory.Store, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(memoryOpener(store))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seeded() *memory.Store {
	store := memory.NewStore()
	store.PutEquipment(domain.Equipment{ID: "eq-1", Type: "excavator", DailyRate: 20000, ReplacementValue: 9000000})
	store.PutBooking(domain.Booking{
		ID: "bk-1", BookingNumber: "UDR-2026-000001", EquipmentID: "eq-1", Status: domain.BookingStatusConfirmed,
		Interval: domain.MustInterval(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)),
	})
	return store
}

func TestCheck(t *testing.T) {
	store := seeded()

	out, err := run(t, store, "check", "--equipment", "eq-1", "--start", "2026-06-01", "--end", "2026-06-05")
	require.NoError(t, err)
	assert.Contains(t, out, "eq-1 is available for 2026-06-01 -> 2026-06-05")

	out, err = run(t, store, "check", "--equipment", "eq-1", "--start", "2026-06-12", "--end", "2026-06-14")
	require.NoError(t, err)
	assert.Contains(t, out, "NOT available")
	assert.Contains(t, out, "UDR-2026-000001")
	assert.Contains(t, out, "Next available: 2026-06-15")

	out, err = run(t, store, "check", "--json", "--alternatives", "--equipment", "eq-1", "--start", "2026-06-12", "--end", "2026-06-14")
	require.NoError(t, err)
	var got checkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.IsAvailable)
	assert.NotEmpty(t, got.Alternatives)

	_, err = run(t, store, "check", "--start", "2026-06-12", "--end", "2026-06-14")
	assert.EqualError(t, err, "--equipment is required")
}

func TestPrice(t *testing.T) {
	out, err := run(t, seeded(), "price", "--equipment", "eq-1", "--start", "2026-06-01", "--end", "2026-06-08")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "$1,150.00")

	out, err = run(t, seeded(), "price", "--json", "--equipment", "eq-1", "--start", "2026-06-01", "--end", "2026-06-08")
	require.NoError(t, err)
	var q service.PriceBreakdown
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, int64(115000), q.TotalAmount)
}

func TestBlockCommands(t *testing.T) {
	store := seeded()

	out, err := run(t, store, "block", "create", "--json", "--equipment", "eq-1", "--start", "2026-07-01", "--end", "2026-07-03", "--notes", "annual service")
	require.NoError(t, err)
	var b domain.AvailabilityBlock
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, domain.BlockReasonMaintenance, b.Reason)

	out, err = run(t, store, "block", "list", "--equipment", "eq-1")
	require.NoError(t, err)
	assert.Contains(t, out, b.ID)
	assert.Contains(t, out, "annual service")

	_, err = run(t, store, "block", "delete", b.ID)
	require.NoError(t, err)
	out, err = run(t, store, "block", "list", "--equipment", "eq-1", "--start", "2026-06-01", "--end", "2026-08-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No blocks")

	_, err = run(t, store, "block", "create", "--equipment", "eq-1", "--start", "2026-07-01", "--end", "2026-07-03", "--reason", "holiday")
	assert.True(t, domain.IsInvalidRequest(err))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.05", formatCents(5))
	assert.Equal(t, "$1,234,567.89", formatCents(123456789))
	assert.Equal(t, "-$12.00", formatCents(-1200))
}
