package stock

import (
	"sort"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
)

// recentDistributionDays is the dashboard window for "recent" movements
const recentDistributionDays = 7

// DashboardMetrics are the headline counts shown on the dashboard
type DashboardMetrics struct {
	TotalLots               int `json:"total_lots"`
	LowStockCount           int `json:"low_stock_count"`
	NearingExpiryCount      int `json:"nearing_expiry_count"`
	RecentDistributionCount int `json:"recent_distribution_count"`
}

// ComputeDashboardMetrics derives the dashboard counts from snapshots of
// the lot and distribution collections.
func ComputeDashboardMetrics(lots []*repository.DrugLot, distributions []*repository.Distribution, today time.Time, policy Policy) DashboardMetrics {
	metrics := DashboardMetrics{TotalLots: len(lots)}

	for _, lot := range lots {
		tags := Classify(lot, today, policy)
		if HasTag(tags, TagLowStock) {
			metrics.LowStockCount++
		}
		if HasTag(tags, TagNearingExpiry) {
			metrics.NearingExpiryCount++
		}
	}

	cutoff := dateOnly(today).AddDate(0, 0, -recentDistributionDays)
	for _, d := range distributions {
		if !d.Date.Before(cutoff) {
			metrics.RecentDistributionCount++
		}
	}

	return metrics
}

// ServiceTotal is the summed distributed quantity for one service bucket
type ServiceTotal struct {
	ServiceName string `json:"service_name"`
	Total       int    `json:"total"`
}

// DistributionTotalsByService sums distributed quantities per service.
// Every known service appears, at zero if nothing was distributed to it.
// Distributions whose service has since been deleted bucket under their
// denormalized service name, after the known services in first-encountered
// order.
func DistributionTotalsByService(services []*repository.Service, distributions []*repository.Distribution) []ServiceTotal {
	totals := make([]ServiceTotal, 0, len(services))
	indexByKey := make(map[string]int, len(services))

	for _, svc := range services {
		indexByKey[svc.ID] = len(totals)
		totals = append(totals, ServiceTotal{ServiceName: svc.Name})
	}

	for _, d := range distributions {
		if i, ok := indexByKey[d.ServiceID]; ok {
			totals[i].Total += d.QuantityDistributed
			continue
		}

		// Orphaned entry: its service was deleted. Bucket by name.
		key := "name:" + d.ServiceName
		if i, ok := indexByKey[key]; ok {
			totals[i].Total += d.QuantityDistributed
			continue
		}

		indexByKey[key] = len(totals)
		totals = append(totals, ServiceTotal{
			ServiceName: d.ServiceName,
			Total:       d.QuantityDistributed,
		})
	}

	return totals
}

// ItemTotal is the summed distributed quantity for one item
type ItemTotal struct {
	ItemName string `json:"item_name"`
	Total    int    `json:"total"`
}

// TopDistributedItems returns the n most distributed items by summed
// quantity, descending. Ties keep first-encountered order.
func TopDistributedItems(distributions []*repository.Distribution, n int) []ItemTotal {
	totals := make([]ItemTotal, 0)
	indexByName := make(map[string]int)

	for _, d := range distributions {
		if i, ok := indexByName[d.ItemName]; ok {
			totals[i].Total += d.QuantityDistributed
			continue
		}
		indexByName[d.ItemName] = len(totals)
		totals = append(totals, ItemTotal{ItemName: d.ItemName, Total: d.QuantityDistributed})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})

	if n > 0 && len(totals) > n {
		totals = totals[:n]
	}

	return totals
}
