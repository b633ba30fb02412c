package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// DrugLot represents one batch of a drug held in the pharmacy.
// Lots of the same product share a barcode but carry their own
// lot number, quantity and expiry date.
type DrugLot struct {
	ID                string     `db:"id" json:"id"`
	Barcode           string     `db:"barcode" json:"barcode"`
	LotNumber         *string    `db:"lot_number" json:"lot_number,omitempty"`
	Designation       string     `db:"designation" json:"designation"`
	Category          *string    `db:"category" json:"category,omitempty"`
	InitialStock      *int       `db:"initial_stock" json:"initial_stock,omitempty"`
	CurrentStock      int        `db:"current_stock" json:"current_stock"`
	LowStockThreshold int        `db:"low_stock_threshold" json:"low_stock_threshold"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at" json:"-"`
}

const drugLotColumns = `
	id, barcode, lot_number, designation, category, initial_stock,
	current_stock, low_stock_threshold, expiry_date, created_at, updated_at
`

// DrugLotRepository handles drug lot persistence
type DrugLotRepository struct {
	db *database.DB
}

// NewDrugLotRepository creates a new drug lot repository
func NewDrugLotRepository(db *database.DB) *DrugLotRepository {
	return &DrugLotRepository{db: db}
}

// Create creates a new drug lot
func (r *DrugLotRepository) Create(ctx context.Context, lot *DrugLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}

	query := `
		INSERT INTO drug_lots (
			id, barcode, lot_number, designation, category, initial_stock,
			current_stock, low_stock_threshold, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.Barcode, lot.LotNumber, lot.Designation, lot.Category,
		lot.InitialStock, lot.CurrentStock, lot.LowStockThreshold, lot.ExpiryDate,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a lot by ID
func (r *DrugLotRepository) GetByID(ctx context.Context, id string) (*DrugLot, error) {
	var lot DrugLot

	query := `SELECT ` + drugLotColumns + ` FROM drug_lots WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &lot, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundWithKey("lot")
	}
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

// GetByBarcode returns all lots sharing a barcode, newest first.
// Several lots of the same product may be in stock at once.
func (r *DrugLotRepository) GetByBarcode(ctx context.Context, barcode string) ([]*DrugLot, error) {
	var lots []*DrugLot

	query := `
		SELECT ` + drugLotColumns + `
		FROM drug_lots
		WHERE barcode = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &lots, query, barcode); err != nil {
		return nil, err
	}

	return lots, nil
}

// List returns all lots ordered ascending by designation.
// Filtering and status derivation happen in memory on top of this snapshot.
func (r *DrugLotRepository) List(ctx context.Context) ([]*DrugLot, error) {
	var lots []*DrugLot

	query := `
		SELECT ` + drugLotColumns + `
		FROM drug_lots
		WHERE deleted_at IS NULL
		ORDER BY designation ASC
	`

	if err := r.db.SelectContext(ctx, &lots, query); err != nil {
		return nil, err
	}

	return lots, nil
}

// Update updates a lot's metadata (designation, category, threshold, expiry).
// Stock quantities change only through the transactional stock operations.
func (r *DrugLotRepository) Update(ctx context.Context, lot *DrugLot) error {
	query := `
		UPDATE drug_lots SET
			lot_number = $2, designation = $3, category = $4,
			low_stock_threshold = $5, expiry_date = $6,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		lot.ID, lot.LotNumber, lot.Designation, lot.Category,
		lot.LowStockThreshold, lot.ExpiryDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundWithKey("lot")
	}

	return nil
}

// SoftDelete soft deletes a lot
func (r *DrugLotRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE drug_lots SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundWithKey("lot")
	}

	return nil
}
