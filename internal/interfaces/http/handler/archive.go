package handler

import (
	"time"

	archiveapp "github.com/batchline/backend/internal/application/archive"
	"github.com/gin-gonic/gin"
)

// downloadURLTTL is how long generated archive download links stay valid.
const downloadURLTTL = 15 * time.Minute

// ArchiveHandler handles transaction archive export endpoints
type ArchiveHandler struct {
	BaseHandler
	archiveService *archiveapp.ArchiveService
}

// NewArchiveHandler creates a new ArchiveHandler
func NewArchiveHandler(archiveService *archiveapp.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{
		archiveService: archiveService,
	}
}

// ExportTransactionsRequest represents a request to export a transaction window
// @Description Request body for exporting ledger transactions to object storage
type ExportTransactionsRequest struct {
	From string `json:"from" binding:"required" example:"2024-01-01"`
	To   string `json:"to" binding:"required" example:"2024-01-31"`
}

// DownloadURLResponse carries a signed download link for an exported archive
// @Description Signed download URL with its expiry
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Export godoc
// @ID           exportStockTransactions
// @Summary      Export stock transactions
// @Description  Export the transaction log for a date window as CSV to object storage
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body ExportTransactionsRequest true "Export window"
// @Success      200 {object} APIResponse[archiveapp.ArchiveResult]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/transactions/export [post]
func (h *ArchiveHandler) Export(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ExportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, err := parseDateTime(req.From)
	if err != nil {
		h.BadRequest(c, "Invalid from date format")
		return
	}
	to, err := parseDateTime(req.To)
	if err != nil {
		h.BadRequest(c, "Invalid to date format")
		return
	}

	result, err := h.archiveService.ExportTransactions(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// DownloadURL godoc
// @ID           getArchiveDownloadURL
// @Summary      Get archive download URL
// @Description  Generate a time-limited download link for a previously exported archive
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        key query string true "Storage key returned by the export"
// @Success      200 {object} APIResponse[DownloadURLResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/transactions/export/download-url [get]
func (h *ArchiveHandler) DownloadURL(c *gin.Context) {
	if _, err := getTenantID(c); err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	key := c.Query("key")
	if key == "" {
		h.BadRequest(c, "key is required")
		return
	}

	url, expiresAt, err := h.archiveService.GetDownloadURL(c.Request.Context(), key, downloadURLTTL)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{URL: url, ExpiresAt: expiresAt})
}
