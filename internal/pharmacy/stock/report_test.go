package stock_test

import (
	"testing"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dist(itemName, serviceID, serviceName string, quantity, daysAgo int) *repository.Distribution {
	return &repository.Distribution{
		ID:                  itemName + serviceID,
		Barcode:             "3400930000009",
		ItemName:            itemName,
		QuantityDistributed: quantity,
		ServiceID:           serviceID,
		ServiceName:         serviceName,
		DistributedBy:       "user-1",
		Date:                today.AddDate(0, 0, -daysAgo),
	}
}

func TestComputeDashboardMetrics(t *testing.T) {
	lots := []*repository.DrugLot{
		lot(4, 10, nil),                               // low stock
		lot(20, 10, datePtr(today.AddDate(0, 1, 0))),  // nearing expiry
		lot(3, 10, datePtr(today.AddDate(0, 2, 0))),   // nearing expiry and low stock
		lot(50, 10, datePtr(today.AddDate(1, 0, 0))),  // in stock
		lot(2, 10, datePtr(today.AddDate(0, 0, -1))),  // expired, stock tag suppressed
	}
	distributions := []*repository.Distribution{
		dist("Doliprane 1000mg", "svc-1", "Urgences", 5, 0),
		dist("Doliprane 1000mg", "svc-1", "Urgences", 3, 7),
		dist("Amoxicilline 1g", "svc-2", "Chirurgie", 2, 8),
	}

	m := stock.ComputeDashboardMetrics(lots, distributions, today, stock.DefaultPolicy())

	assert.Equal(t, 5, m.TotalLots)
	assert.Equal(t, 2, m.LowStockCount)
	assert.Equal(t, 2, m.NearingExpiryCount)
	// the 7 day window is inclusive, so the 8 day old entry drops out
	assert.Equal(t, 2, m.RecentDistributionCount)
}

func TestDistributionTotalsByService_EmptyLedger(t *testing.T) {
	services := []*repository.Service{
		{ID: "svc-1", Name: "Urgences"},
		{ID: "svc-2", Name: "Chirurgie"},
	}

	totals := stock.DistributionTotalsByService(services, nil)

	require.Len(t, totals, 2)
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Urgences", Total: 0}, totals[0])
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Chirurgie", Total: 0}, totals[1])
}

func TestDistributionTotalsByService_SumsAndLeavesOthersAtZero(t *testing.T) {
	services := []*repository.Service{
		{ID: "svc-1", Name: "Urgences"},
		{ID: "svc-2", Name: "Chirurgie"},
		{ID: "svc-3", Name: "Pediatrie"},
	}
	distributions := []*repository.Distribution{
		dist("Doliprane 1000mg", "svc-2", "Chirurgie", 7, 1),
		dist("Amoxicilline 1g", "svc-2", "Chirurgie", 3, 2),
	}

	totals := stock.DistributionTotalsByService(services, distributions)

	require.Len(t, totals, 3)
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Urgences", Total: 0}, totals[0])
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Chirurgie", Total: 10}, totals[1])
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Pediatrie", Total: 0}, totals[2])
}

func TestDistributionTotalsByService_OrphansBucketByName(t *testing.T) {
	services := []*repository.Service{
		{ID: "svc-1", Name: "Urgences"},
	}
	// svc-9 was deleted; its entries keep the denormalized name
	distributions := []*repository.Distribution{
		dist("Doliprane 1000mg", "svc-9", "Maternite", 4, 1),
		dist("Amoxicilline 1g", "svc-9", "Maternite", 6, 2),
		dist("Ibuprofene 400mg", "svc-1", "Urgences", 1, 3),
	}

	totals := stock.DistributionTotalsByService(services, distributions)

	require.Len(t, totals, 2)
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Urgences", Total: 1}, totals[0])
	assert.Equal(t, stock.ServiceTotal{ServiceName: "Maternite", Total: 10}, totals[1])
}

func TestTopDistributedItems(t *testing.T) {
	distributions := []*repository.Distribution{
		dist("Doliprane 1000mg", "svc-1", "Urgences", 5, 1),
		dist("Amoxicilline 1g", "svc-1", "Urgences", 12, 2),
		dist("Doliprane 1000mg", "svc-2", "Chirurgie", 4, 3),
		dist("Ibuprofene 400mg", "svc-1", "Urgences", 9, 4),
		dist("Serum physiologique", "svc-2", "Chirurgie", 9, 5),
	}

	top := stock.TopDistributedItems(distributions, 3)

	require.Len(t, top, 3)
	assert.Equal(t, stock.ItemTotal{ItemName: "Amoxicilline 1g", Total: 12}, top[0])
	// Doliprane and Ibuprofene both total 9; Doliprane was encountered first
	assert.Equal(t, stock.ItemTotal{ItemName: "Doliprane 1000mg", Total: 9}, top[1])
	assert.Equal(t, stock.ItemTotal{ItemName: "Ibuprofene 400mg", Total: 9}, top[2])
}

func TestTopDistributedItems_NLargerThanItems(t *testing.T) {
	distributions := []*repository.Distribution{
		dist("Doliprane 1000mg", "svc-1", "Urgences", 5, 1),
	}

	top := stock.TopDistributedItems(distributions, 10)
	require.Len(t, top, 1)

	top = stock.TopDistributedItems(nil, 10)
	assert.Empty(t, top)
}
