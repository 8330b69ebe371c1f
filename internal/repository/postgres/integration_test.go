//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configPath = flag.String("config", "config/config.test.yaml", "path to config file, relative to the module root")

func prepareDB(t *testing.T) *sql.DB {
	t.Helper()
	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join("..", "..", "..", *configPath)
	}
	cfg, err := config.Load(path)
	require.NoError(t, err, "load %s", path)

	var db *sql.DB
	// Retry connection as DB might still be starting up
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err == nil {
			if err = db.Ping(); err == nil {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}
	require.NoError(t, err, "connect to database")
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedEquipment(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := "it-" + uuid.NewString()
	_, err := db.Exec(`INSERT INTO equipment (id, unit_id, type, daily_rate_cents) VALUES ($1, $1, 'excavator', 20000)`, id)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(`DELETE FROM bookings WHERE equipment_id = $1`, id)
		db.Exec(`DELETE FROM availability_blocks WHERE equipment_id = $1`, id)
		db.Exec(`DELETE FROM equipment WHERE id = $1`, id)
	})
	return id
}

func TestIntegration_ConcurrentCreateExclusive(t *testing.T) {
	db := prepareDB(t)
	store := NewStore(db, 5*time.Second)
	eqID := seedEquipment(t, db)

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 1, 0)
	iv := domain.MustInterval(start, start.AddDate(0, 0, 3))

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.BookingRepository.CreateExclusive(context.Background(), &domain.Booking{
				ID: uuid.NewString(), BookingNumber: uuid.NewString(), EquipmentID: eqID, CustomerID: "c",
				Interval: iv, Status: domain.BookingStatusPending,
			}, iv)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, domain.IsOverlap(err) || domain.IsSerializationConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	got, err := store.BookingRepository.ListOccupying(context.Background(), eqID, iv, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestIntegration_TerminalBookingsFreeTheSlot(t *testing.T) {
	db := prepareDB(t)
	store := NewStore(db, 5*time.Second)
	eqID := seedEquipment(t, db)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 2, 0)
	iv := domain.MustInterval(start, start.AddDate(0, 0, 2))
	first := &domain.Booking{ID: uuid.NewString(), BookingNumber: uuid.NewString(), EquipmentID: eqID, CustomerID: "a", Interval: iv, Status: domain.BookingStatusPending}
	require.NoError(t, store.BookingRepository.CreateExclusive(ctx, first, iv))

	require.NoError(t, store.BookingRepository.UpdateStatus(ctx, first.ID, domain.BookingStatusCancelled))

	second := &domain.Booking{ID: uuid.NewString(), BookingNumber: uuid.NewString(), EquipmentID: eqID, CustomerID: "b", Interval: iv, Status: domain.BookingStatusPending}
	assert.NoError(t, store.BookingRepository.CreateExclusive(ctx, second, iv))
}

func TestIntegration_BlocksGuardBookings(t *testing.T) {
	db := prepareDB(t)
	store := NewStore(db, 5*time.Second)
	eqID := seedEquipment(t, db)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 3, 0)
	iv := domain.MustInterval(start, start.AddDate(0, 0, 2))
	require.NoError(t, store.BlockRepository.Create(ctx, &domain.AvailabilityBlock{
		ID: uuid.NewString(), EquipmentID: eqID, Interval: iv, Reason: domain.BlockReasonMaintenance,
	}))

	err := store.BookingRepository.CreateExclusive(ctx, &domain.Booking{
		ID: uuid.NewString(), BookingNumber: uuid.NewString(), EquipmentID: eqID, CustomerID: "a", Interval: iv, Status: domain.BookingStatusPending,
	}, iv)
	assert.True(t, domain.IsOverlap(err))
}

func TestIntegration_UnrecognisedStatusOccupies(t *testing.T) {
	db := prepareDB(t)
	store := NewStore(db, 5*time.Second)
	eqID := seedEquipment(t, db)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 4, 0)
	iv := domain.MustInterval(start, start.AddDate(0, 0, 2))
	_, err := db.Exec(`INSERT INTO bookings (id, booking_number, equipment_id, customer_id, start_at_utc, end_at_utc, status)
		VALUES ($1, $1, $2, 'legacy', $3, $4, 'on_hold')`, uuid.NewString(), eqID, iv.Start, iv.End)
	require.NoError(t, err)

	got, err := store.BookingRepository.ListOccupying(ctx, eqID, iv, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	err = store.BookingRepository.CreateExclusive(ctx, &domain.Booking{
		ID: uuid.NewString(), BookingNumber: uuid.NewString(), EquipmentID: eqID, CustomerID: "a", Interval: iv, Status: domain.BookingStatusPending,
	}, iv)
	assert.True(t, domain.IsOverlap(err))
}
