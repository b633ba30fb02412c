package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/stock"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/suggest"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// InventoryService handles pharmacy inventory business logic
type InventoryService struct {
	lotRepo          *repository.DrugLotRepository
	stockRepo        *repository.StockRepository
	serviceRepo      *repository.ServiceRepository
	distRepo         *repository.DistributionRepository
	alertRepo        *repository.AlertRepository
	publisher        *events.PharmacyEventPublisher
	suggestions      *suggest.Client
	policy           stock.Policy
	defaultThreshold int
	logger           *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	lotRepo *repository.DrugLotRepository,
	stockRepo *repository.StockRepository,
	serviceRepo *repository.ServiceRepository,
	distRepo *repository.DistributionRepository,
	alertRepo *repository.AlertRepository,
	publisher *events.PharmacyEventPublisher,
	suggestions *suggest.Client,
	cfg *config.InventoryConfig,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		lotRepo:          lotRepo,
		stockRepo:        stockRepo,
		serviceRepo:      serviceRepo,
		distRepo:         distRepo,
		alertRepo:        alertRepo,
		publisher:        publisher,
		suggestions:      suggestions,
		policy:           stock.Policy{ExpiredSuppressesStock: cfg.ExpiredSuppressesStockTags},
		defaultThreshold: cfg.DefaultLowStockThreshold,
		logger:           log,
	}
}

// LotView is a lot enriched with its derived status tags
type LotView struct {
	*repository.DrugLot
	Status []stock.StatusTag `json:"status"`
}

func (s *InventoryService) view(lot *repository.DrugLot, today time.Time) *LotView {
	return &LotView{
		DrugLot: lot,
		Status:  stock.Classify(lot, today, s.policy),
	}
}

// Lot operations

// ListLots applies the primary and advanced filters to the live inventory
// and returns each matching lot with its status tags.
func (s *InventoryService) ListLots(ctx context.Context, primary stock.PrimaryFilter, adv stock.AdvancedCriteria) ([]*LotView, error) {
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	filtered := stock.Filter(lots, primary, adv, today, s.policy)

	views := make([]*LotView, len(filtered))
	for i, lot := range filtered {
		views[i] = s.view(lot, today)
	}

	return views, nil
}

// CreateLot registers a lot without a stock movement
func (s *InventoryService) CreateLot(ctx context.Context, lot *repository.DrugLot) error {
	if lot.LowStockThreshold == 0 {
		lot.LowStockThreshold = s.defaultThreshold
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return err
	}

	s.publisher.PublishLotCreated(ctx, lot, actorID(actor.FromContext(ctx)))
	return nil
}

// GetLot gets a lot with its status tags
func (s *InventoryService) GetLot(ctx context.Context, id string) (*LotView, error) {
	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.view(lot, time.Now()), nil
}

// UpdateLot updates a lot's metadata
func (s *InventoryService) UpdateLot(ctx context.Context, lot *repository.DrugLot) (*LotView, error) {
	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, err
	}

	updated, err := s.lotRepo.GetByID(ctx, lot.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"designation":         updated.Designation,
		"lot_number":          updated.LotNumber,
		"category":            updated.Category,
		"low_stock_threshold": updated.LowStockThreshold,
		"expiry_date":         updated.ExpiryDate,
	}
	s.publisher.PublishLotUpdated(ctx, updated.ID, fields, actorID(actor.FromContext(ctx)))

	return s.view(updated, time.Now()), nil
}

// DeleteLot soft deletes a lot
func (s *InventoryService) DeleteLot(ctx context.Context, id string) error {
	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.lotRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishLotDeleted(ctx, lot, actorID(actor.FromContext(ctx)))
	return nil
}

// ScanBarcode returns all lots carrying the scanned barcode, newest first,
// so the caller can prefill a receive form or pick a lot to distribute.
func (s *InventoryService) ScanBarcode(ctx context.Context, barcode string) ([]*LotView, error) {
	lots, err := s.lotRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	views := make([]*LotView, len(lots))
	for i, lot := range lots {
		views[i] = s.view(lot, today)
	}

	return views, nil
}

// Stock movements

// ReceiveStockInput is the incoming delivery as seen by callers
type ReceiveStockInput struct {
	Barcode     string     `json:"barcode" validate:"required"`
	Designation string     `json:"designation" validate:"required"`
	LotNumber   *string    `json:"lot_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Quantity    int        `json:"quantity" validate:"required,gte=1"`
}

// ReceiveStock records an incoming delivery. An existing lot with the
// barcode is incremented (most recent first); otherwise a new lot is
// created with the configured default threshold.
func (s *InventoryService) ReceiveStock(ctx context.Context, input ReceiveStockInput) (*LotView, error) {
	lot, created, err := s.stockRepo.ReceiveStock(ctx, repository.ReceiveStockInput{
		Barcode:          input.Barcode,
		Designation:      input.Designation,
		LotNumber:        input.LotNumber,
		ExpiryDate:       input.ExpiryDate,
		Quantity:         input.Quantity,
		DefaultThreshold: s.defaultThreshold,
	})
	if err != nil {
		return nil, err
	}

	act := actor.FromContext(ctx)
	s.logger.Info().
		Str("barcode", input.Barcode).
		Int("quantity", input.Quantity).
		Bool("new_lot", created).
		Str("actor", act.String()).
		Msg("stock received")

	s.publisher.PublishStockReceived(ctx, lot, input.Quantity, actorID(act), created)
	s.raiseAlerts(ctx, lot)

	return s.view(lot, time.Now()), nil
}

// DistributeStockInput is one outgoing distribution as seen by callers
type DistributeStockInput struct {
	LotID     string `json:"lot_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	ServiceID string `json:"service_id" validate:"required,uuid"`
}

// DistributeStock sends stock from one specific lot to a hospital
// service. The decrement and the ledger insert are one transaction; when
// the transactional re-read shows insufficient stock the whole operation
// aborts and the ledger stays untouched.
func (s *InventoryService) DistributeStock(ctx context.Context, input DistributeStockInput) (*LotView, *repository.Distribution, error) {
	svc, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, nil, err
	}

	act := actor.FromContext(ctx)

	lot, dist, err := s.stockRepo.Distribute(ctx, repository.DistributeInput{
		LotID:         input.LotID,
		Quantity:      input.Quantity,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		DistributedBy: actorID(act),
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("lot_id", lot.ID).
		Int("quantity", input.Quantity).
		Str("service", svc.Name).
		Int("remaining", lot.CurrentStock).
		Str("actor", act.String()).
		Msg("stock distributed")

	s.publisher.PublishStockDistributed(ctx, lot, dist)
	s.raiseAlerts(ctx, lot)

	return s.view(lot, time.Now()), dist, nil
}

// ListDistributions returns the newest ledger entries first
func (s *InventoryService) ListDistributions(ctx context.Context, limit int) ([]*repository.Distribution, error) {
	return s.distRepo.ListRecent(ctx, limit)
}

// Services administration

// ListServices lists all hospital services
func (s *InventoryService) ListServices(ctx context.Context) ([]*repository.Service, error) {
	return s.serviceRepo.List(ctx)
}

// GetService gets a hospital service by ID
func (s *InventoryService) GetService(ctx context.Context, id string) (*repository.Service, error) {
	return s.serviceRepo.GetByID(ctx, id)
}

// CreateService creates a hospital service
func (s *InventoryService) CreateService(ctx context.Context, svc *repository.Service) error {
	return s.serviceRepo.Create(ctx, svc)
}

// DeleteService deletes a hospital service. Past distributions keep the
// denormalized name for the audit trail.
func (s *InventoryService) DeleteService(ctx context.Context, id string) error {
	return s.serviceRepo.Delete(ctx, id)
}

// Alerts

// ListAlerts lists alerts with optional acknowledged/type filters
func (s *InventoryService) ListAlerts(ctx context.Context, acknowledged *bool, alertType string, page, perPage int) ([]*repository.StockAlert, int64, error) {
	return s.alertRepo.List(ctx, acknowledged, alertType, page, perPage)
}

// AcknowledgeAlert marks an alert as handled by the acting user
func (s *InventoryService) AcknowledgeAlert(ctx context.Context, id string) error {
	act := actor.FromContext(ctx)

	if err := s.alertRepo.Acknowledge(ctx, id, actorID(act)); err != nil {
		return err
	}

	s.publisher.PublishAlertAcknowledged(ctx, id, actorID(act))
	return nil
}

// raiseAlerts inspects a lot after a stock movement and records an alert
// for each active condition that does not already have an open alert.
// Alert failures are logged, never propagated: the stock movement that
// triggered them has already committed.
func (s *InventoryService) raiseAlerts(ctx context.Context, lot *repository.DrugLot) {
	tags := stock.Classify(lot, time.Now(), s.policy)

	for _, tag := range tags {
		var alert *repository.StockAlert

		switch tag {
		case stock.TagToReorder:
			alert = &repository.StockAlert{
				AlertType:    repository.AlertTypeOutOfStock,
				Severity:     repository.SeverityCritical,
				Message:      fmt.Sprintf("%s is out of stock", lot.Designation),
				CurrentStock: &lot.CurrentStock,
				Threshold:    &lot.LowStockThreshold,
			}
		case stock.TagLowStock:
			alert = &repository.StockAlert{
				AlertType:    repository.AlertTypeLowStock,
				Severity:     repository.SeverityWarning,
				Message:      fmt.Sprintf("%s is below its threshold (%d left)", lot.Designation, lot.CurrentStock),
				CurrentStock: &lot.CurrentStock,
				Threshold:    &lot.LowStockThreshold,
			}
		case stock.TagNearingExpiry:
			alert = &repository.StockAlert{
				AlertType:  repository.AlertTypeNearingExpiry,
				Severity:   repository.SeverityWarning,
				Message:    fmt.Sprintf("%s expires on %s", lot.Designation, lot.ExpiryDate.Format("2006-01-02")),
				ExpiryDate: lot.ExpiryDate,
			}
		case stock.TagExpired:
			alert = &repository.StockAlert{
				AlertType:  repository.AlertTypeExpired,
				Severity:   repository.SeverityCritical,
				Message:    fmt.Sprintf("%s expired on %s", lot.Designation, lot.ExpiryDate.Format("2006-01-02")),
				ExpiryDate: lot.ExpiryDate,
			}
		default:
			continue
		}

		alert.LotID = lot.ID
		alert.ItemName = lot.Designation

		open, err := s.alertRepo.HasOpenAlert(ctx, lot.ID, alert.AlertType)
		if err != nil {
			s.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to check open alerts")
			continue
		}
		if open {
			continue
		}

		if err := s.alertRepo.Create(ctx, alert); err != nil {
			s.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to create alert")
			continue
		}

		s.publisher.PublishAlertGenerated(ctx, alert)
	}
}

// Dashboard

// DashboardStats aggregates the dashboard view
type DashboardStats struct {
	Metrics         stock.DashboardMetrics `json:"metrics"`
	TotalsByService []stock.ServiceTotal   `json:"totals_by_service"`
	TopItems        []stock.ItemTotal      `json:"top_items"`
	OpenAlertCount  int64                  `json:"open_alert_count"`
}

// topDistributedItemCount is the size of the dashboard's top-items list
const topDistributedItemCount = 5

// GetDashboardStats computes the dashboard from current snapshots
func (s *InventoryService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	distributions, err := s.distRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	services, err := s.serviceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	alertCount, err := s.alertRepo.GetUnacknowledgedCount(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Metrics:         stock.ComputeDashboardMetrics(lots, distributions, time.Now(), s.policy),
		TotalsByService: stock.DistributionTotalsByService(services, distributions),
		TopItems:        stock.TopDistributedItems(distributions, topDistributedItemCount),
		OpenAlertCount:  alertCount,
	}, nil
}

// Suggestions

// SuggestAdjustment proxies a lot summary to the suggestion service
func (s *InventoryService) SuggestAdjustment(ctx context.Context, req suggest.Request) (*suggest.Suggestion, error) {
	return s.suggestions.Suggest(ctx, req)
}

func actorID(a *actor.Actor) string {
	if a == nil {
		return actor.SystemActor().ID
	}
	return a.ID
}
