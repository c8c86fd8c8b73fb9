package ledger

import (
	"context"
	"fmt"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockHandler handles LowStockDetected events and pushes replenishment
// alerts when an ingredient drops to or below its threshold
type LowStockHandler struct {
	logger   *zap.Logger
	notifier LowStockNotifier
}

// LowStockNotifier is the interface for delivering low stock alerts.
// Implementations can support different channels (in-app, email, webhook).
type LowStockNotifier interface {
	// SendAlert sends a low stock alert notification
	SendAlert(ctx context.Context, alert LowStockAlert) error
}

// LowStockAlert represents an ingredient replenishment alert
type LowStockAlert struct {
	TenantID       string `json:"tenant_id"`
	StockRecordID  string `json:"stock_record_id"`
	IngredientName string `json:"ingredient_name"`
	Unit           string `json:"unit"`
	CurrentStock   string `json:"current_stock"`
	Threshold      string `json:"threshold"`
	AlertType      string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for delivering alerts
func (h *LowStockHandler) WithNotifier(notifier LowStockNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{ledger.EventTypeLowStockDetected}
}

// Handle processes a LowStockDetectedEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowStockEvent, ok := event.(*ledger.LowStockDetectedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ledger.EventTypeLowStockDetected),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ledger.EventTypeLowStockDetected, event.EventType())
	}

	h.logger.Warn("low stock detected",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("stock_record_id", lowStockEvent.StockRecordID.String()),
		zap.String("ingredient_name", lowStockEvent.IngredientName),
		zap.String("unit", lowStockEvent.Unit),
		zap.String("current_stock", lowStockEvent.CurrentStock.String()),
		zap.String("threshold", lowStockEvent.LowStockThreshold.String()),
	)

	alertType := "low_stock"
	if lowStockEvent.CurrentStock.IsZero() {
		alertType = "out_of_stock"
	}

	if h.notifier == nil {
		return nil
	}

	alert := LowStockAlert{
		TenantID:       event.TenantID().String(),
		StockRecordID:  lowStockEvent.StockRecordID.String(),
		IngredientName: lowStockEvent.IngredientName,
		Unit:           lowStockEvent.Unit,
		CurrentStock:   lowStockEvent.CurrentStock.String(),
		Threshold:      lowStockEvent.LowStockThreshold.String(),
		AlertType:      alertType,
	}

	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send low stock alert",
			zap.String("ingredient_name", alert.IngredientName),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Info("low stock alert sent",
		zap.String("ingredient_name", alert.IngredientName),
		zap.String("alert_type", alertType),
	)
	return nil
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingLowStockNotifier is a notifier that only logs alerts.
// Useful for development and testing.
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a new logging notifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{
		logger: logger,
	}
}

// SendAlert logs the low stock alert
func (n *LoggingLowStockNotifier) SendAlert(ctx context.Context, alert LowStockAlert) error {
	n.logger.Warn("LOW STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("ingredient_name", alert.IngredientName),
		zap.String("unit", alert.Unit),
		zap.String("current_stock", alert.CurrentStock),
		zap.String("threshold", alert.Threshold),
	)
	return nil
}

// Ensure LoggingLowStockNotifier implements LowStockNotifier
var _ LowStockNotifier = (*LoggingLowStockNotifier)(nil)
