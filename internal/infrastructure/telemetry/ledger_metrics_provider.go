// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider using GORM.
// It queries the stock_records table directly for aggregated metrics.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// GetReservedQuantityByUnit returns total reserved stock per unit for a tenant.
func (p *GormLedgerMetricsProvider) GetReservedQuantityByUnit(ctx context.Context, tenantID uuid.UUID) (map[string]float64, error) {
	type result struct {
		Unit          string  `gorm:"column:unit"`
		ReservedStock float64 `gorm:"column:reserved_stock"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("stock_records").
		Select("unit, COALESCE(SUM(reserved_stock), 0) as reserved_stock").
		Where("tenant_id = ?", tenantID).
		Group("unit").
		Having("SUM(reserved_stock) > 0").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]float64, len(results))
	for _, r := range results {
		m[r.Unit] = r.ReservedStock
	}

	return m, nil
}

// GetLowStockCount returns count of ingredients at or below their threshold for a tenant.
func (p *GormLedgerMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_records").
		Where("tenant_id = ?", tenantID).
		Where("current_stock <= low_stock_threshold").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
// Tenants are derived from the set of tenant IDs present in the ledger.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs that own stock records.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("stock_records").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error

	return ids, err
}
