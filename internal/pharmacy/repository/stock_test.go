package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// --- ReceiveStock Tests ---

func TestReceiveStock_NewLot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	repo := repository.NewStockRepository(suite.DB)

	expiry := time.Now().AddDate(0, 6, 0).UTC().Truncate(24 * time.Hour)
	lot, created, err := repo.ReceiveStock(ctx, repository.ReceiveStockInput{
		Barcode:          "3400930000010",
		Designation:      "Amoxicilline 500mg",
		LotNumber:        strPtr("AMX-2026-01"),
		ExpiryDate:       &expiry,
		Quantity:         40,
		DefaultThreshold: 15,
	})
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEmpty(t, lot.ID)
	assert.Equal(t, 40, lot.CurrentStock)
	require.NotNil(t, lot.InitialStock)
	assert.Equal(t, 40, *lot.InitialStock)
	assert.Equal(t, 15, lot.LowStockThreshold)
	assert.False(t, lot.CreatedAt.IsZero())
}

func TestReceiveStock_ExistingLotIncrements(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	existing := createTestLot(t, ctx, lotRepo, "3400930000011", "Doliprane 1000mg", 25)

	repo := repository.NewStockRepository(suite.DB)

	newExpiry := time.Now().AddDate(2, 0, 0).UTC().Truncate(24 * time.Hour)
	lot, created, err := repo.ReceiveStock(ctx, repository.ReceiveStockInput{
		Barcode:          "3400930000011",
		Designation:      "Doliprane 1000mg comprimés",
		LotNumber:        strPtr("DOL-2026-07"),
		ExpiryDate:       &newExpiry,
		Quantity:         30,
		DefaultThreshold: 15,
	})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, existing.ID, lot.ID)
	assert.Equal(t, 55, lot.CurrentStock)

	// Metadata is overwritten, last write wins
	assert.Equal(t, "Doliprane 1000mg comprimés", lot.Designation)
	require.NotNil(t, lot.LotNumber)
	assert.Equal(t, "DOL-2026-07", *lot.LotNumber)

	// The default threshold only applies to new lots
	assert.Equal(t, existing.LowStockThreshold, lot.LowStockThreshold)

	reread, err := lotRepo.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, reread.CurrentStock)
	assert.Equal(t, "Doliprane 1000mg comprimés", reread.Designation)
}

func TestReceiveStock_TargetsMostRecentLot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	createTestLot(t, ctx, lotRepo, "3400930000012", "Ibuprofène 400mg", 10)
	time.Sleep(10 * time.Millisecond)
	newest := createTestLot(t, ctx, lotRepo, "3400930000012", "Ibuprofène 400mg", 5)

	repo := repository.NewStockRepository(suite.DB)

	lot, created, err := repo.ReceiveStock(ctx, repository.ReceiveStockInput{
		Barcode:     "3400930000012",
		Designation: "Ibuprofène 400mg",
		Quantity:    20,
	})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, newest.ID, lot.ID)
	assert.Equal(t, 25, lot.CurrentStock)
}

func TestReceiveStock_RejectsNonPositiveQuantity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	repo := repository.NewStockRepository(suite.DB)

	_, _, err := repo.ReceiveStock(ctx, repository.ReceiveStockInput{
		Barcode:     "3400930000013",
		Designation: "Morphine 10mg",
		Quantity:    0,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// --- Distribute Tests ---

func TestDistribute_Success(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	serviceRepo := repository.NewServiceRepository(suite.DB)
	lot := createTestLot(t, ctx, lotRepo, "3400930000020", "Insuline rapide", 50)
	svc := createTestService(t, ctx, serviceRepo, "Cardiologie")

	repo := repository.NewStockRepository(suite.DB)

	updated, dist, err := repo.Distribute(ctx, repository.DistributeInput{
		LotID:         lot.ID,
		Quantity:      12,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		DistributedBy: actor.SystemActor().ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 38, updated.CurrentStock)
	assert.NotEmpty(t, dist.ID)
	assert.Equal(t, 12, dist.QuantityDistributed)
	assert.Equal(t, "Insuline rapide", dist.ItemName)
	assert.Equal(t, "Cardiologie", dist.ServiceName)
	assert.False(t, dist.Date.IsZero())

	distRepo := repository.NewDistributionRepository(suite.DB)
	entries, err := distRepo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, dist.ID, entries[0].ID)
}

func TestDistribute_InsufficientStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	serviceRepo := repository.NewServiceRepository(suite.DB)
	lot := createTestLot(t, ctx, lotRepo, "3400930000021", "Paracétamol injectable", 5)
	svc := createTestService(t, ctx, serviceRepo, "Urgences")

	repo := repository.NewStockRepository(suite.DB)

	_, _, err := repo.Distribute(ctx, repository.DistributeInput{
		LotID:       lot.ID,
		Quantity:    6,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// The failed distribution leaves no trace
	reread, err := lotRepo.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reread.CurrentStock)

	distRepo := repository.NewDistributionRepository(suite.DB)
	entries, err := distRepo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDistribute_UnknownLot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	repo := repository.NewStockRepository(suite.DB)

	_, _, err := repo.Distribute(ctx, repository.DistributeInput{
		LotID:       "00000000-0000-0000-0000-000000000099",
		Quantity:    1,
		ServiceID:   "00000000-0000-0000-0000-000000000001",
		ServiceName: "Pédiatrie",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

// Two concurrent distributions must never overdraw a lot: the row lock
// serializes them, the second re-reads the decremented stock and aborts.
func TestDistribute_ConcurrentNeverOverdraws(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	serviceRepo := repository.NewServiceRepository(suite.DB)
	lot := createTestLot(t, ctx, lotRepo, "3400930000022", "Héparine 5000UI", 10)
	svc := createTestService(t, ctx, serviceRepo, "Réanimation")

	repo := repository.NewStockRepository(suite.DB)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = repo.Distribute(ctx, repository.DistributeInput{
				LotID:         lot.ID,
				Quantity:      6,
				ServiceID:     svc.ID,
				ServiceName:   svc.Name,
				DistributedBy: actor.SystemActor().ID,
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two distributions must fail")

	reread, err := lotRepo.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reread.CurrentStock)

	distRepo := repository.NewDistributionRepository(suite.DB)
	entries, err := distRepo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
