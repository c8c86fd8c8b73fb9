package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider provides a list of tenants for scheduling
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// DailyArchiveHour/Minute is the time to run the daily ledger archive
	// (24h clock, local time)
	DailyArchiveHour   int
	DailyArchiveMinute int

	// LowStockScanInterval is how often to run the low-stock scan
	LowStockScanInterval time.Duration

	// CheckInterval is how often to check if it's time to run the daily jobs
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyArchiveHour:     2, // 2am
		DailyArchiveMinute:   0,
		LowStockScanInterval: 15 * time.Minute,
		CheckInterval:        time.Minute,
	}
}

// CronTrigger fires the scheduled ledger jobs: the daily archive at a fixed
// time of day and the low-stock scan on an interval.
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date the archive last ran for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go c.archiveLoop(ctx)
	go c.scanLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("archive_hour", c.config.DailyArchiveHour),
		zap.Int("archive_minute", c.config.DailyArchiveMinute),
		zap.Duration("low_stock_scan_interval", c.config.LowStockScanInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// archiveLoop checks periodically if it's time to run the daily archive
func (c *CronTrigger) archiveLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTriggerArchive(ctx)
		}
	}
}

// scanLoop runs the low-stock scan on its interval
func (c *CronTrigger) scanLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.LowStockScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.triggerForAllTenants(ctx, "low-stock scan", c.scheduler.ScheduleLowStockScan)
		}
	}
}

// checkAndTriggerArchive checks if it's archive time and triggers it
func (c *CronTrigger) checkAndTriggerArchive(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Check if it's the right time
	if now.Hour() != c.config.DailyArchiveHour || now.Minute() != c.config.DailyArchiveMinute {
		return
	}

	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily ledger archive")
	c.triggerForAllTenants(ctx, "daily archive", c.scheduler.ScheduleDailyArchive)
}

// triggerForAllTenants schedules a job for every active tenant
func (c *CronTrigger) triggerForAllTenants(ctx context.Context, name string, schedule func(*uuid.UUID) error) {
	tenantIDs, err := c.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to get tenant IDs for scheduled job",
			zap.String("job", name),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("Scheduling job for tenants",
		zap.String("job", name),
		zap.Int("tenant_count", len(tenantIDs)),
	)

	for _, tenantID := range tenantIDs {
		tid := tenantID
		if err := schedule(&tid); err != nil {
			c.logger.Error("Failed to schedule job for tenant",
				zap.String("job", name),
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
}

// TriggerManualArchive allows manual triggering of an archive window
func (c *CronTrigger) TriggerManualArchive(ctx context.Context, tenantID *uuid.UUID, periodStart, periodEnd time.Time) error {
	return c.scheduler.ScheduleJob(tenantID, JobTypeLedgerArchive, periodStart, periodEnd)
}
