package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// Service is a hospital department receiving distributions
type Service struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceRepository handles hospital service persistence
type ServiceRepository struct {
	db *database.DB
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db *database.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create creates a new service
func (r *ServiceRepository) Create(ctx context.Context, svc *Service) error {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}

	query := `
		INSERT INTO services (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query, svc.ID, svc.Name).Scan(&svc.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a service by ID
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*Service, error) {
	var svc Service

	query := `SELECT id, name, created_at FROM services WHERE id = $1`

	err := r.db.GetContext(ctx, &svc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundWithKey("service")
	}
	if err != nil {
		return nil, err
	}

	return &svc, nil
}

// List lists all services ordered by name
func (r *ServiceRepository) List(ctx context.Context) ([]*Service, error) {
	var services []*Service

	query := `SELECT id, name, created_at FROM services ORDER BY name ASC`

	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, err
	}

	return services, nil
}

// Delete deletes a service. Historical distributions keep their
// denormalized service name and are not touched.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM services WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundWithKey("service")
	}

	return nil
}
