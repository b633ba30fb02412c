package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// Alert types
const (
	AlertTypeLowStock      = "low_stock"
	AlertTypeOutOfStock    = "out_of_stock"
	AlertTypeNearingExpiry = "nearing_expiry"
	AlertTypeExpired       = "expired"
)

// Alert severities
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// StockAlert represents a stock or expiry alert raised for a lot
type StockAlert struct {
	ID             string     `db:"id" json:"id"`
	AlertType      string     `db:"alert_type" json:"alert_type"`
	LotID          string     `db:"lot_id" json:"lot_id"`
	ItemName       string     `db:"item_name" json:"item_name"`
	Severity       string     `db:"severity" json:"severity"`
	Message        string     `db:"message" json:"message"`
	CurrentStock   *int       `db:"current_stock" json:"current_stock,omitempty"`
	Threshold      *int       `db:"threshold" json:"threshold,omitempty"`
	ExpiryDate     *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	IsAcknowledged bool       `db:"is_acknowledged" json:"is_acknowledged"`
	AcknowledgedBy *string    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create creates a new alert
func (r *AlertRepository) Create(ctx context.Context, alert *StockAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_alerts (
			id, alert_type, lot_id, item_name, severity, message,
			current_stock, threshold, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.AlertType, alert.LotID, alert.ItemName, alert.Severity,
		alert.Message, alert.CurrentStock, alert.Threshold, alert.ExpiryDate,
	).Scan(&alert.CreatedAt)
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*StockAlert, error) {
	var alert StockAlert
	query := `SELECT * FROM stock_alerts WHERE id = $1`
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundWithKey("alert")
		}
		return nil, err
	}
	return &alert, nil
}

// List lists alerts with filtering, critical first then newest first
func (r *AlertRepository) List(ctx context.Context, acknowledged *bool, alertType string, page, perPage int) ([]*StockAlert, int64, error) {
	var total int64
	args := []interface{}{}
	argIndex := 1

	countQuery := `SELECT COUNT(*) FROM stock_alerts WHERE 1=1`
	query := `SELECT * FROM stock_alerts WHERE 1=1`

	if acknowledged != nil {
		clause := fmt.Sprintf(` AND is_acknowledged = $%d`, argIndex)
		countQuery += clause
		query += clause
		args = append(args, *acknowledged)
		argIndex++
	}

	if alertType != "" {
		clause := fmt.Sprintf(` AND alert_type = $%d`, argIndex)
		countQuery += clause
		query += clause
		args = append(args, alertType)
		argIndex++
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY CASE severity WHEN 'critical' THEN 0 ELSE 1 END, created_at DESC`

	offset := (page - 1) * perPage
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, perPage, offset)

	var alerts []*StockAlert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// Acknowledge acknowledges an alert
func (r *AlertRepository) Acknowledge(ctx context.Context, id, userID string) error {
	query := `
		UPDATE stock_alerts
		SET is_acknowledged = true, acknowledged_by = $2, acknowledged_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundWithKey("alert")
	}

	return nil
}

// HasOpenAlert reports whether an unacknowledged alert of the given type
// already exists for a lot. Used to avoid raising duplicates on every
// mutation while a condition persists.
func (r *AlertRepository) HasOpenAlert(ctx context.Context, lotID, alertType string) (bool, error) {
	var count int64
	query := `
		SELECT COUNT(*) FROM stock_alerts
		WHERE lot_id = $1 AND alert_type = $2 AND is_acknowledged = false
	`
	if err := r.db.GetContext(ctx, &count, query, lotID, alertType); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUnacknowledgedCount gets count of unacknowledged alerts
func (r *AlertRepository) GetUnacknowledgedCount(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM stock_alerts WHERE is_acknowledged = false`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}
