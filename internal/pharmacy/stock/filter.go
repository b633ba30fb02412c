package stock

import (
	"sort"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
)

// PrimaryFilter is the single-select top-level inventory view filter
type PrimaryFilter string

const (
	PrimaryAll           PrimaryFilter = "all"
	PrimaryLowStock      PrimaryFilter = "low_stock"
	PrimaryNearingExpiry PrimaryFilter = "nearing_expiry"
	PrimaryExpired       PrimaryFilter = "expired"
	PrimaryToReorder     PrimaryFilter = "to_reorder"
	PrimaryOverstock     PrimaryFilter = "overstock"
)

// RotationBucket classifies a lot by how recently it was last updated
type RotationBucket string

const (
	RotationFast     RotationBucket = "fast"     // updated within 30 days
	RotationSlow     RotationBucket = "slow"     // updated 30 to 90 days ago
	RotationInactive RotationBucket = "inactive" // updated more than 90 days ago
)

// rotation window boundaries in days
const (
	rotationFastDays = 30
	rotationSlowDays = 90
)

// AdvancedCriteria are additional filters ANDed on top of the primary
// filter result. Zero values mean "not set".
type AdvancedCriteria struct {
	Category    string
	MinStock    *int
	MaxStock    *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	Rotation    RotationBucket
}

// Filter selects and orders lots for the inventory view. The input slice
// is expected in its natural designation-ascending order, which is
// preserved except for the expiry-driven primary filters. Empty input or
// no matches yield an empty result, never an error.
func Filter(lots []*repository.DrugLot, primary PrimaryFilter, adv AdvancedCriteria, today time.Time, policy Policy) []*repository.DrugLot {
	result := make([]*repository.DrugLot, 0, len(lots))

	for _, lot := range lots {
		tags := Classify(lot, today, policy)

		if !matchesPrimary(tags, primary) {
			continue
		}
		if !matchesAdvanced(lot, adv, today) {
			continue
		}

		result = append(result, lot)
	}

	switch primary {
	case PrimaryNearingExpiry:
		// soonest expiry first
		sort.SliceStable(result, func(i, j int) bool {
			return expiryBefore(result[i], result[j])
		})
	case PrimaryExpired:
		// most recently expired first
		sort.SliceStable(result, func(i, j int) bool {
			return expiryBefore(result[j], result[i])
		})
	}

	return result
}

func matchesPrimary(tags []StatusTag, primary PrimaryFilter) bool {
	switch primary {
	case PrimaryAll, "":
		return true
	case PrimaryNearingExpiry:
		return HasTag(tags, TagNearingExpiry)
	case PrimaryExpired:
		return HasTag(tags, TagExpired)
	case PrimaryLowStock:
		return HasTag(tags, TagLowStock) && !HasTag(tags, TagExpired)
	case PrimaryToReorder:
		return HasTag(tags, TagToReorder) && !HasTag(tags, TagExpired)
	case PrimaryOverstock:
		return HasTag(tags, TagOverstock) && !HasTag(tags, TagExpired)
	default:
		return false
	}
}

func matchesAdvanced(lot *repository.DrugLot, adv AdvancedCriteria, today time.Time) bool {
	if adv.Category != "" {
		if lot.Category == nil || *lot.Category != adv.Category {
			return false
		}
	}

	if adv.MinStock != nil && lot.CurrentStock < *adv.MinStock {
		return false
	}
	if adv.MaxStock != nil && lot.CurrentStock > *adv.MaxStock {
		return false
	}

	if !inDateRange(lot.CreatedAt, adv.CreatedFrom, adv.CreatedTo) {
		return false
	}
	if !inDateRange(lot.UpdatedAt, adv.UpdatedFrom, adv.UpdatedTo) {
		return false
	}

	if adv.Rotation != "" {
		if rotationOf(lot.UpdatedAt, today) != adv.Rotation {
			return false
		}
	}

	return true
}

// inDateRange checks an inclusive date-only range; nil bounds are open
func inDateRange(t time.Time, from, to *time.Time) bool {
	if t.IsZero() {
		return from == nil && to == nil
	}

	day := dateOnly(t)
	if from != nil && day.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to)) {
		return false
	}
	return true
}

// rotationOf buckets a lot by update recency. A zero update time never
// matches any bucket.
func rotationOf(updatedAt, today time.Time) RotationBucket {
	if updatedAt.IsZero() {
		return ""
	}

	day := dateOnly(today)
	updated := dateOnly(updatedAt)

	switch {
	case !updated.Before(day.AddDate(0, 0, -rotationFastDays)):
		return RotationFast
	case !updated.Before(day.AddDate(0, 0, -rotationSlowDays)):
		return RotationSlow
	default:
		return RotationInactive
	}
}

// expiryBefore orders lots ascending by expiry date; lots without an
// expiry sort last.
func expiryBefore(a, b *repository.DrugLot) bool {
	if a.ExpiryDate == nil {
		return false
	}
	if b.ExpiryDate == nil {
		return true
	}
	return a.ExpiryDate.Before(*b.ExpiryDate)
}
