package handler

import (
	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles stock ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// ===================== Query Handlers =====================

// ListStockLevels godoc
// @ID           listStockLevels
// @Summary      List stock levels
// @Description  Retrieve a paginated list of per-ingredient stock records
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        search query string false "Search by ingredient name"
// @Param        low_stock query boolean false "Only records at or below their threshold"
// @Param        has_stock query boolean false "Filter by available stock"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(ingredient_name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} APIResponse[[]ledgerapp.StockRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock-levels [get]
func (h *LedgerHandler) ListStockLevels(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter ledgerapp.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	records, total, err := h.ledgerService.GetAllStockLevels(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// GetStockLevel godoc
// @ID           getStockLevel
// @Summary      Get one stock level
// @Description  Retrieve the stock record for an ingredient-unit combination
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        ingredient_name query string true "Ingredient name"
// @Param        unit query string true "Unit of measure"
// @Success      200 {object} APIResponse[ledgerapp.StockRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock-levels/one [get]
func (h *LedgerHandler) GetStockLevel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	ingredientName := c.Query("ingredient_name")
	unit := c.Query("unit")
	if ingredientName == "" || unit == "" {
		h.BadRequest(c, "ingredient_name and unit are required")
		return
	}

	record, err := h.ledgerService.GetStockLevel(c.Request.Context(), tenantID, ingredientName, unit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// ReconcileStock godoc
// @ID           reconcileStock
// @Summary      Reconcile a stock record against its ledger
// @Description  Compare a record's running stock with the sum of its signed ADD/DEDUCT transactions
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        ingredient_name query string true "Ingredient name"
// @Param        unit query string true "Unit of measure"
// @Success      200 {object} APIResponse[ledgerapp.ReconciliationResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock-levels/reconcile [get]
func (h *LedgerHandler) ReconcileStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	ingredientName := c.Query("ingredient_name")
	unit := c.Query("unit")
	if ingredientName == "" || unit == "" {
		h.BadRequest(c, "ingredient_name and unit are required")
		return
	}

	report, err := h.ledgerService.ReconcileStock(c.Request.Context(), tenantID, ingredientName, unit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

// GetLowStockAlerts godoc
// @ID           getLowStockAlerts
// @Summary      List low stock alerts
// @Description  Retrieve records whose current stock is at or below their threshold
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      200 {object} APIResponse[[]ledgerapp.StockRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/alerts/low-stock [get]
func (h *LedgerHandler) GetLowStockAlerts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	records, err := h.ledgerService.GetLowStockAlerts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, records)
}

// ListTransactions godoc
// @ID           listStockTransactions
// @Summary      List stock transactions
// @Description  Retrieve the append-only transaction log with optional filtering
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        ingredient_name query string false "Filter by ingredient name"
// @Param        unit query string false "Filter by unit"
// @Param        transaction_type query string false "Filter by type" Enums(ADD, DEDUCT, RESERVE, UNRESERVE)
// @Param        batch_ref query string false "Filter by batch reference"
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(transaction_date)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]ledgerapp.TransactionResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter ledgerapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// GetStatistics godoc
// @ID           getStockStatistics
// @Summary      Get stock statistics
// @Description  Retrieve ledger dashboard counters
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      200 {object} APIResponse[ledgerapp.StockStatisticsResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/statistics [get]
func (h *LedgerHandler) GetStatistics(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.ledgerService.GetStockStatistics(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// ===================== Command Handlers =====================

// AddStock godoc
// @ID           addStock
// @Summary      Add stock
// @Description  Increase the on-hand balance for an ingredient, creating the record on first use
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.AddStockRequest true "Stock addition details"
// @Success      200 {object} APIResponse[ledgerapp.StockRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/add [post]
func (h *LedgerHandler) AddStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.ledgerService.AddStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// DeductStock godoc
// @ID           deductStock
// @Summary      Deduct stock
// @Description  Decrease available stock. Insufficient stock returns success=false with the shortfall, never an error.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.DeductStockRequest true "Stock deduction details"
// @Success      200 {object} APIResponse[ledgerapp.DeductResult]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/deduct [post]
func (h *LedgerHandler) DeductStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.DeductStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ReserveStock godoc
// @ID           reserveStock
// @Summary      Reserve stock
// @Description  Reserve available stock for a production batch
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.ReserveStockRequest true "Reservation details"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/reserve [post]
func (h *LedgerHandler) ReserveStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.ReserveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.ledgerService.ReserveStock(c.Request.Context(), tenantID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, nil)
}

// UnreserveStock godoc
// @ID           unreserveStock
// @Summary      Release a reservation
// @Description  Release previously reserved stock back to the available pool
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.UnreserveStockRequest true "Release details"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/unreserve [post]
func (h *LedgerHandler) UnreserveStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.UnreserveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.ledgerService.UnreserveStock(c.Request.Context(), tenantID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, nil)
}

// SetThreshold godoc
// @ID           setLowStockThreshold
// @Summary      Set low-stock threshold
// @Description  Update the low-stock alert threshold for an ingredient
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.SetThresholdRequest true "Threshold details"
// @Success      200 {object} APIResponse[ledgerapp.StockRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/threshold [put]
func (h *LedgerHandler) SetThreshold(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.SetThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.ledgerService.SetLowStockThreshold(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// ProcessSale godoc
// @ID           processSale
// @Summary      Process a sale
// @Description  Deduct ingredient usage for sold units. Any shortfall fails the whole sale with success=false and zero mutations.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ledgerapp.ProcessSaleRequest true "Sale details"
// @Success      200 {object} APIResponse[ledgerapp.SaleResult]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/sales/process [post]
func (h *LedgerHandler) ProcessSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.ProcessSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.ProcessSale(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
