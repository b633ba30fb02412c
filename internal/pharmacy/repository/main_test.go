package repository_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// createTestLot creates a drug lot for tests that need an existing lot.
func createTestLot(t *testing.T, ctx context.Context, repo *repository.DrugLotRepository, barcode, designation string, stock int) *repository.DrugLot {
	t.Helper()
	lot := &repository.DrugLot{
		Barcode:           barcode,
		LotNumber:         strPtr("LOT-" + barcode),
		Designation:       designation,
		CurrentStock:      stock,
		LowStockThreshold: 10,
		ExpiryDate:        timePtr(time.Now().AddDate(1, 0, 0).UTC().Truncate(24 * time.Hour)),
	}
	err := repo.Create(ctx, lot)
	require.NoError(t, err)
	return lot
}

// createTestService creates a hospital service for distribution tests.
func createTestService(t *testing.T, ctx context.Context, repo *repository.ServiceRepository, name string) *repository.Service {
	t.Helper()
	svc := &repository.Service{Name: name}
	err := repo.Create(ctx, svc)
	require.NoError(t, err)
	return svc
}
