// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the stock ledger.
// It tracks stock movements, sale processing, and inventory health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	stockMovementTotal  *Counter
	deductRejectedTotal *Counter
	saleProcessedTotal  *Counter

	// Gauge metrics (point-in-time values)
	reservedQuantity *FloatGauge
	lowStockCount    *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider provides ledger data for periodic metrics collection.
// This interface allows the telemetry layer to query ledger state without
// depending on the ledger domain directly.
type LedgerMetricsProvider interface {
	// GetReservedQuantityByUnit returns total reserved stock per unit for a tenant
	GetReservedQuantityByUnit(ctx context.Context, tenantID uuid.UUID) (map[string]float64, error)

	// GetLowStockCount returns count of ingredients at or below their threshold for a tenant
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	var err error

	// Stock movement metrics
	bm.stockMovementTotal, err = NewCounter(
		cfg.Meter,
		"batchline_stock_movement_total",
		"Total number of stock ledger movements",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	bm.deductRejectedTotal, err = NewCounter(
		cfg.Meter,
		"batchline_stock_deduct_rejected_total",
		"Total number of deductions rejected for insufficient stock",
		"{rejections}",
	)
	if err != nil {
		return nil, err
	}

	// Sale metrics
	bm.saleProcessedTotal, err = NewCounter(
		cfg.Meter,
		"batchline_sale_processed_total",
		"Total number of sale deduction batches processed",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	// Ledger gauge metrics
	bm.reservedQuantity, err = NewFloatGauge(
		cfg.Meter,
		"batchline_ledger_reserved_quantity",
		"Current reserved stock quantity",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"batchline_ledger_low_stock_count",
		"Number of ingredients at or below their low stock threshold",
		"{ingredients}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Stock Movement Metrics
// =============================================================================

// MovementType labels a ledger movement for metrics.
type MovementType string

const (
	MovementTypeAdd        MovementType = "add"
	MovementTypeDeduct     MovementType = "deduct"
	MovementTypeReserve    MovementType = "reserve"
	MovementTypeUnreserve  MovementType = "unreserve"
	MovementTypeConversion MovementType = "conversion"
)

// RecordStockMovement records a ledger movement.
// This should be called from the application layer after a posting commits.
func (bm *BusinessMetrics) RecordStockMovement(ctx context.Context, tenantID uuid.UUID, movement MovementType) {
	bm.stockMovementTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrMovementType.String(string(movement)),
	)
}

// RecordDeductRejected records a deduction that was refused for insufficient stock.
func (bm *BusinessMetrics) RecordDeductRejected(ctx context.Context, tenantID uuid.UUID) {
	bm.deductRejectedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Sale Metrics
// =============================================================================

// RecordSaleProcessed records a processed sale deduction batch.
func (bm *BusinessMetrics) RecordSaleProcessed(ctx context.Context, tenantID uuid.UUID, success bool) {
	status := "success"
	if !success {
		status = "partial"
	}
	bm.saleProcessedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSaleStatus.String(status),
	)
}

// =============================================================================
// Ledger Gauges
// =============================================================================

// RecordReservedQuantity records the current reserved quantity for a unit.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordReservedQuantity(ctx context.Context, tenantID uuid.UUID, unit string, quantity decimal.Decimal) {
	v, _ := quantity.Float64()
	bm.reservedQuantity.Record(ctx, v,
		AttrTenantID.String(tenantID.String()),
		AttrUnit.String(unit),
	)
}

// RecordLowStockCount records the number of ingredients at or below threshold.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.lowStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects ledger metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectLedgerMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectLedgerMetrics(ctx, tenantProvider)
		}
	}
}

// collectLedgerMetrics collects ledger gauge metrics for all tenants.
func (bm *BusinessMetrics) collectLedgerMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.ledgerProvider == nil {
		bm.logger.Debug("No ledger provider configured, skipping ledger metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantLedgerMetrics(ctx, tenantID)
	}
}

// collectTenantLedgerMetrics collects ledger metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantLedgerMetrics(ctx context.Context, tenantID uuid.UUID) {
	// Collect reserved quantity by unit
	reservedByUnit, err := bm.ledgerProvider.GetReservedQuantityByUnit(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get reserved quantity for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for unit, quantity := range reservedByUnit {
			bm.reservedQuantity.Record(ctx, quantity,
				AttrTenantID.String(tenantID.String()),
				AttrUnit.String(unit),
			)
		}
	}

	// Collect low stock count
	lowStockCount, err := bm.ledgerProvider.GetLowStockCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordLowStockCount(ctx, tenantID, lowStockCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
