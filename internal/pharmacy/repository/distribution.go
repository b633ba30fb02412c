package repository

import (
	"context"
	"time"

	"github.com/pharmastock/pharmastock-backend/pkg/database"
)

// Distribution is one immutable ledger entry recording stock leaving the
// pharmacy for a hospital service. The item and service names are
// denormalized so the entry survives lot and service deletion.
type Distribution struct {
	ID                  string    `db:"id" json:"id"`
	LotID               *string   `db:"lot_id" json:"lot_id,omitempty"`
	Barcode             string    `db:"barcode" json:"barcode"`
	LotNumber           *string   `db:"lot_number" json:"lot_number,omitempty"`
	ItemName            string    `db:"item_name" json:"item_name"`
	QuantityDistributed int       `db:"quantity_distributed" json:"quantity_distributed"`
	ServiceID           string    `db:"service_id" json:"service_id"`
	ServiceName         string    `db:"service_name" json:"service_name"`
	DistributedBy       string    `db:"distributed_by" json:"distributed_by"`
	Date                time.Time `db:"date" json:"date"`
}

const distributionColumns = `
	id, lot_id, barcode, lot_number, item_name,
	quantity_distributed, service_id, service_name, distributed_by, date
`

// DistributionRepository reads the distribution ledger.
// Writes happen only inside StockRepository.Distribute.
type DistributionRepository struct {
	db *database.DB
}

// NewDistributionRepository creates a new distribution repository
func NewDistributionRepository(db *database.DB) *DistributionRepository {
	return &DistributionRepository{db: db}
}

// ListRecent returns the newest ledger entries first
func (r *DistributionRepository) ListRecent(ctx context.Context, limit int) ([]*Distribution, error) {
	if limit < 1 {
		limit = 50
	}

	var dists []*Distribution

	query := `
		SELECT ` + distributionColumns + `
		FROM distributions
		ORDER BY date DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &dists, query, limit); err != nil {
		return nil, err
	}

	return dists, nil
}

// ListAll returns the whole ledger, newest first
func (r *DistributionRepository) ListAll(ctx context.Context) ([]*Distribution, error) {
	var dists []*Distribution

	query := `
		SELECT ` + distributionColumns + `
		FROM distributions
		ORDER BY date DESC
	`

	if err := r.db.SelectContext(ctx, &dists, query); err != nil {
		return nil, err
	}

	return dists, nil
}
