package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Lot lifecycle events
	EventLotCreated = "pharmacy.lot.created"
	EventLotUpdated = "pharmacy.lot.updated"
	EventLotDeleted = "pharmacy.lot.deleted"

	// Stock movement events
	EventStockReceived    = "pharmacy.stock.received"
	EventStockDistributed = "pharmacy.stock.distributed"

	// Alert events
	EventAlertGenerated    = "pharmacy.alert.generated"
	EventAlertAcknowledged = "pharmacy.alert.acknowledged"
)

// Exchange names
const (
	ExchangePharmacyEvents = "pharmacy.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Lot Events

// LotCreatedEvent is published when a drug lot is registered
type LotCreatedEvent struct {
	LotID        string     `json:"lot_id"`
	Barcode      string     `json:"barcode"`
	LotNumber    string     `json:"lot_number"`
	Designation  string     `json:"designation"`
	Category     string     `json:"category"`
	InitialStock int        `json:"initial_stock"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	CreatedBy    string     `json:"created_by"`
}

// LotUpdatedEvent is published when a drug lot is updated
type LotUpdatedEvent struct {
	LotID     string         `json:"lot_id"`
	Fields    map[string]any `json:"fields"`
	UpdatedBy string         `json:"updated_by"`
}

// LotDeletedEvent is published when a drug lot is removed
type LotDeletedEvent struct {
	LotID     string `json:"lot_id"`
	Barcode   string `json:"barcode"`
	DeletedBy string `json:"deleted_by"`
}

// Stock Events

// StockReceivedEvent is published when stock is received into a lot
type StockReceivedEvent struct {
	LotID       string `json:"lot_id"`
	Barcode     string `json:"barcode"`
	ItemName    string `json:"item_name"`
	Quantity    int    `json:"quantity"`
	NewStock    int    `json:"new_stock"`
	ReceivedBy  string `json:"received_by"`
	NewLot      bool   `json:"new_lot"`
}

// StockDistributedEvent is published when stock leaves a lot for a service
type StockDistributedEvent struct {
	DistributionID string `json:"distribution_id"`
	LotID          string `json:"lot_id"`
	Barcode        string `json:"barcode"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	RemainingStock int    `json:"remaining_stock"`
	ServiceID      string `json:"service_id"`
	ServiceName    string `json:"service_name"`
	DistributedBy  string `json:"distributed_by"`
}

// Alert Events

// AlertGeneratedEvent is published when a stock alert is generated
type AlertGeneratedEvent struct {
	AlertID    string     `json:"alert_id"`
	AlertType  string     `json:"alert_type"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	LotID      string     `json:"lot_id,omitempty"`
	ItemName   string     `json:"item_name,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// AlertAcknowledgedEvent is published when an alert is acknowledged
type AlertAcknowledgedEvent struct {
	AlertID        string `json:"alert_id"`
	AcknowledgedBy string `json:"acknowledged_by"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
