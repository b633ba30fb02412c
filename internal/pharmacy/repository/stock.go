package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// StockRepository executes the transactional stock mutations. Both
// operations re-read the lot row under a FOR UPDATE lock before writing,
// so the persisted quantity is the sole arbiter under concurrent access.
type StockRepository struct {
	db *database.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *database.DB) *StockRepository {
	return &StockRepository{db: db}
}

// ReceiveStockInput carries one incoming delivery line
type ReceiveStockInput struct {
	Barcode     string
	Designation string
	LotNumber   *string
	ExpiryDate  *time.Time
	Quantity    int

	// DefaultThreshold is applied when the receipt creates a new lot
	DefaultThreshold int
}

// ReceiveStock records incoming stock for a barcode. If a lot with the
// barcode already exists the most recently created one is incremented and
// its metadata overwritten (last write wins); otherwise a new lot is
// created with current and initial stock equal to the received quantity.
// Returns the resulting lot and whether it was newly created.
func (r *StockRepository) ReceiveStock(ctx context.Context, input ReceiveStockInput) (*DrugLot, bool, error) {
	if input.Quantity < 1 {
		return nil, false, errors.Validation(map[string]string{
			"quantity": "must be at least 1",
		})
	}

	var lot DrugLot
	var created bool

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery := `
			SELECT ` + drugLotColumns + `
			FROM drug_lots
			WHERE barcode = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		`

		err := tx.GetContext(ctx, &lot, lockQuery, input.Barcode)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to lock lot for receipt: %w", err)
		}

		if err == sql.ErrNoRows {
			created = true
			lot = DrugLot{
				ID:                uuid.New().String(),
				Barcode:           input.Barcode,
				LotNumber:         input.LotNumber,
				Designation:       input.Designation,
				InitialStock:      &input.Quantity,
				CurrentStock:      input.Quantity,
				LowStockThreshold: input.DefaultThreshold,
				ExpiryDate:        input.ExpiryDate,
			}

			insertQuery := `
				INSERT INTO drug_lots (
					id, barcode, lot_number, designation, initial_stock,
					current_stock, low_stock_threshold, expiry_date
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at, updated_at
			`

			return tx.QueryRowxContext(ctx, insertQuery,
				lot.ID, lot.Barcode, lot.LotNumber, lot.Designation,
				lot.InitialStock, lot.CurrentStock, lot.LowStockThreshold, lot.ExpiryDate,
			).Scan(&lot.CreatedAt, &lot.UpdatedAt)
		}

		updateQuery := `
			UPDATE drug_lots SET
				current_stock = current_stock + $2,
				designation = $3, lot_number = $4, expiry_date = $5,
				updated_at = NOW()
			WHERE id = $1
			RETURNING current_stock, updated_at
		`

		return tx.QueryRowxContext(ctx, updateQuery,
			lot.ID, input.Quantity, input.Designation, input.LotNumber, input.ExpiryDate,
		).Scan(&lot.CurrentStock, &lot.UpdatedAt)
	})

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, false, appErr
		}
		return nil, false, err
	}

	if !created {
		// The locked read returned the pre-receipt metadata; reflect
		// the last-write-wins update without re-reading.
		lot.Designation = input.Designation
		lot.LotNumber = input.LotNumber
		lot.ExpiryDate = input.ExpiryDate
	}

	return &lot, created, nil
}

// DistributeInput carries one outgoing distribution
type DistributeInput struct {
	LotID         string
	Quantity      int
	ServiceID     string
	ServiceName   string
	DistributedBy string
}

// Distribute decrements a lot and writes the matching ledger entry in a
// single transaction. The sufficiency check runs against the row read
// under the lock, never against a caller-supplied quantity; when two
// concurrent distributions would overdraw the lot, the second read sees
// the decremented stock and aborts with no side effects.
func (r *StockRepository) Distribute(ctx context.Context, input DistributeInput) (*DrugLot, *Distribution, error) {
	if input.Quantity < 1 {
		return nil, nil, errors.Validation(map[string]string{
			"quantity": "must be at least 1",
		})
	}

	var lot DrugLot
	var dist Distribution

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery := `
			SELECT ` + drugLotColumns + `
			FROM drug_lots
			WHERE id = $1 AND deleted_at IS NULL
			FOR UPDATE
		`

		err := tx.GetContext(ctx, &lot, lockQuery, input.LotID)
		if err == sql.ErrNoRows {
			return errors.NotFoundWithKey("lot")
		}
		if err != nil {
			return fmt.Errorf("failed to lock lot for distribution: %w", err)
		}

		if input.Quantity > lot.CurrentStock {
			return errors.InsufficientStock(lot.Designation, lot.CurrentStock)
		}

		updateQuery := `
			UPDATE drug_lots SET
				current_stock = current_stock - $2,
				updated_at = NOW()
			WHERE id = $1
			RETURNING current_stock, updated_at
		`

		if err := tx.QueryRowxContext(ctx, updateQuery, lot.ID, input.Quantity).
			Scan(&lot.CurrentStock, &lot.UpdatedAt); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		dist = Distribution{
			ID:                  uuid.New().String(),
			LotID:               &lot.ID,
			Barcode:             lot.Barcode,
			LotNumber:           lot.LotNumber,
			ItemName:            lot.Designation,
			QuantityDistributed: input.Quantity,
			ServiceID:           input.ServiceID,
			ServiceName:         input.ServiceName,
			DistributedBy:       input.DistributedBy,
		}

		insertQuery := `
			INSERT INTO distributions (
				id, lot_id, barcode, lot_number, item_name,
				quantity_distributed, service_id, service_name, distributed_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING date
		`

		return tx.QueryRowxContext(ctx, insertQuery,
			dist.ID, dist.LotID, dist.Barcode, dist.LotNumber, dist.ItemName,
			dist.QuantityDistributed, dist.ServiceID, dist.ServiceName, dist.DistributedBy,
		).Scan(&dist.Date)
	})

	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, nil, appErr
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, nil, appErr
		}
		return nil, nil, err
	}

	return &lot, &dist, nil
}
