// Package stock holds the pure inventory logic: status classification,
// compound filtering and dashboard aggregation. Nothing here touches the
// database; callers pass in snapshots and a reference date.
package stock

import (
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
)

// StatusTag is a derived inventory status label
type StatusTag string

const (
	TagExpired       StatusTag = "expired"
	TagNearingExpiry StatusTag = "nearing_expiry"
	TagToReorder     StatusTag = "to_reorder"
	TagLowStock      StatusTag = "low_stock"
	TagOverstock     StatusTag = "overstock"
	TagInStock       StatusTag = "in_stock"
)

// nearingExpiryMonths is the width of the expiry warning window
const nearingExpiryMonths = 3

// Policy controls classification behavior that varied across revisions
// of the pharmacy workflow.
type Policy struct {
	// ExpiredSuppressesStock drops the stock-level tag for expired lots
	// so they do not clutter reorder views. An expired lot is never
	// tagged NearingExpiry regardless of this flag.
	ExpiredSuppressesStock bool
}

// DefaultPolicy returns the policy used in production
func DefaultPolicy() Policy {
	return Policy{ExpiredSuppressesStock: true}
}

// Classify derives the status tags for a lot at the given reference date.
// Expiry tags come first, then at most one stock-level tag; a lot with no
// other tag is InStock. Expiry comparison is date-only.
func Classify(lot *repository.DrugLot, today time.Time, policy Policy) []StatusTag {
	var tags []StatusTag

	day := dateOnly(today)
	expired := false

	if lot.ExpiryDate != nil {
		expiry := dateOnly(*lot.ExpiryDate)

		switch {
		case expiry.Before(day):
			expired = true
			tags = append(tags, TagExpired)
		case !expiry.After(day.AddDate(0, nearingExpiryMonths, 0)):
			tags = append(tags, TagNearingExpiry)
		}
	}

	if !expired || !policy.ExpiredSuppressesStock {
		switch {
		case lot.CurrentStock == 0:
			tags = append(tags, TagToReorder)
		case lot.CurrentStock < lot.LowStockThreshold:
			tags = append(tags, TagLowStock)
		case lot.LowStockThreshold > 0 && lot.CurrentStock > lot.LowStockThreshold*3:
			tags = append(tags, TagOverstock)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, TagInStock)
	}

	return tags
}

// HasTag reports whether a tag set contains the given tag
func HasTag(tags []StatusTag, tag StatusTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// dateOnly truncates a timestamp to midnight in its own location
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
