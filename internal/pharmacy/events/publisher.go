package events

import (
	"context"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/messaging"
)

// PharmacyEventPublisher publishes pharmacy stock events.
// A nil publisher is a no-op so the service keeps working when the
// message broker is not configured.
type PharmacyEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPharmacyEventPublisher creates a new pharmacy event publisher
func NewPharmacyEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*PharmacyEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePharmacyEvents, "pharmacy-service", log)
	if err != nil {
		return nil, err
	}

	return &PharmacyEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishLotCreated publishes a lot created event
func (p *PharmacyEventPublisher) PublishLotCreated(ctx context.Context, lot *repository.DrugLot, createdBy string) {
	if p == nil {
		return
	}

	lotNumber := ""
	if lot.LotNumber != nil {
		lotNumber = *lot.LotNumber
	}
	category := ""
	if lot.Category != nil {
		category = *lot.Category
	}
	initialStock := lot.CurrentStock
	if lot.InitialStock != nil {
		initialStock = *lot.InitialStock
	}

	data := messaging.LotCreatedEvent{
		LotID:        lot.ID,
		Barcode:      lot.Barcode,
		LotNumber:    lotNumber,
		Designation:  lot.Designation,
		Category:     category,
		InitialStock: initialStock,
		ExpiryDate:   lot.ExpiryDate,
		CreatedBy:    createdBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLotCreated, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish lot created event")
	}
}

// PublishLotUpdated publishes a lot updated event
func (p *PharmacyEventPublisher) PublishLotUpdated(ctx context.Context, lotID string, fields map[string]any, updatedBy string) {
	if p == nil {
		return
	}

	data := messaging.LotUpdatedEvent{
		LotID:     lotID,
		Fields:    fields,
		UpdatedBy: updatedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLotUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lotID).Msg("failed to publish lot updated event")
	}
}

// PublishLotDeleted publishes a lot deleted event
func (p *PharmacyEventPublisher) PublishLotDeleted(ctx context.Context, lot *repository.DrugLot, deletedBy string) {
	if p == nil {
		return
	}

	data := messaging.LotDeletedEvent{
		LotID:     lot.ID,
		Barcode:   lot.Barcode,
		DeletedBy: deletedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLotDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish lot deleted event")
	}
}

// PublishStockReceived publishes a stock received event
func (p *PharmacyEventPublisher) PublishStockReceived(ctx context.Context, lot *repository.DrugLot, quantity int, receivedBy string, newLot bool) {
	if p == nil {
		return
	}

	data := messaging.StockReceivedEvent{
		LotID:      lot.ID,
		Barcode:    lot.Barcode,
		ItemName:   lot.Designation,
		Quantity:   quantity,
		NewStock:   lot.CurrentStock,
		ReceivedBy: receivedBy,
		NewLot:     newLot,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockReceived, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock received event")
	}
}

// PublishStockDistributed publishes a stock distributed event
func (p *PharmacyEventPublisher) PublishStockDistributed(ctx context.Context, lot *repository.DrugLot, dist *repository.Distribution) {
	if p == nil {
		return
	}

	data := messaging.StockDistributedEvent{
		DistributionID: dist.ID,
		LotID:          lot.ID,
		Barcode:        dist.Barcode,
		ItemName:       dist.ItemName,
		Quantity:       dist.QuantityDistributed,
		RemainingStock: lot.CurrentStock,
		ServiceID:      dist.ServiceID,
		ServiceName:    dist.ServiceName,
		DistributedBy:  dist.DistributedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDistributed, data); err != nil {
		p.logger.Error().Err(err).Str("distribution_id", dist.ID).Msg("failed to publish stock distributed event")
	}
}

// PublishAlertGenerated publishes an alert generated event
func (p *PharmacyEventPublisher) PublishAlertGenerated(ctx context.Context, alert *repository.StockAlert) {
	if p == nil {
		return
	}

	data := messaging.AlertGeneratedEvent{
		AlertID:    alert.ID,
		AlertType:  alert.AlertType,
		Severity:   alert.Severity,
		Message:    alert.Message,
		LotID:      alert.LotID,
		ItemName:   alert.ItemName,
		ExpiryDate: alert.ExpiryDate,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert generated event")
	}
}

// PublishAlertAcknowledged publishes an alert acknowledged event
func (p *PharmacyEventPublisher) PublishAlertAcknowledged(ctx context.Context, alertID, acknowledgedBy string) {
	if p == nil {
		return
	}

	data := messaging.AlertAcknowledgedEvent{
		AlertID:        alertID,
		AcknowledgedBy: acknowledgedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertAcknowledged, data); err != nil {
		p.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to publish alert acknowledged event")
	}
}
