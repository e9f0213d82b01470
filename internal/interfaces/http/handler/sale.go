package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/application/lifecycle"
	"github.com/crosslist/backend/internal/domain/marketplace"
)

// SaleHandler handles sale confirmations and status fan-out endpoints
type SaleHandler struct {
	BaseHandler
	saleService       *lifecycle.SaleService
	statusSyncService *lifecycle.StatusSyncService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *lifecycle.SaleService, statusSyncService *lifecycle.StatusSyncService) *SaleHandler {
	return &SaleHandler{
		saleService:       saleService,
		statusSyncService: statusSyncService,
	}
}

// RegisterRoutes registers sale and status sync routes
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/sale", h.RecordSale)
	rg.POST("/listings/:id/status-sync", h.SyncStatus)
	rg.POST("/webhooks/:platform/sale", h.Webhook)
}

// BuyerRequest carries optional buyer detail from the marketplace
type BuyerRequest struct {
	Username string `json:"username" binding:"max=120"`
	Name     string `json:"name" binding:"max=255"`
	Address  string `json:"address" binding:"max=500"`
}

func (b *BuyerRequest) toInfo() *lifecycle.BuyerInfo {
	if b == nil {
		return nil
	}
	return &lifecycle.BuyerInfo{
		Username: b.Username,
		Name:     b.Name,
		Address:  b.Address,
	}
}

// RecordSaleRequest represents a sale reported by the seller
// @Description Request body for recording a sale on a listing
type RecordSaleRequest struct {
	Platform  string        `json:"platform" binding:"required" example:"EBAY"`
	SoldPrice float64       `json:"sold_price" binding:"min=0" example:"45.50"`
	Units     int           `json:"units" binding:"omitempty,min=1" example:"1"`
	Buyer     *BuyerRequest `json:"buyer"`
}

// RecordSale godoc
// @Summary      Record a sale on a listing
// @Description  Mark the listing sold on one platform and retire its siblings
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        request body RecordSaleRequest true "Sale details"
// @Success      200 {object} dto.Response{data=lifecycle.SaleResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id}/sale [post]
func (h *SaleHandler) RecordSale(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	code := marketplace.PlatformCode(strings.ToUpper(req.Platform))
	if !code.IsValid() {
		h.BadRequest(c, "Invalid platform code")
		return
	}

	result, err := h.saleService.HandleManualSale(c.Request.Context(), lifecycle.HandleSaleInput{
		ListingID:    listingID,
		PlatformCode: code,
		SoldPrice:    decimal.NewFromFloat(req.SoldPrice),
		Units:        req.Units,
		Buyer:        req.Buyer.toInfo(),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SaleWebhookRequest represents a sale notification pushed by a marketplace
// @Description Webhook payload delivered by a marketplace on sale
type SaleWebhookRequest struct {
	RemoteListingID string        `json:"remote_listing_id" binding:"required" example:"EB-100234"`
	SoldPrice       float64       `json:"sold_price" binding:"min=0" example:"45.50"`
	Buyer           *BuyerRequest `json:"buyer"`
}

// Webhook godoc
// @Summary      Marketplace sale webhook
// @Description  Accept a sale event pushed by a marketplace and run the sale flow
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        platform path string true "Platform code" Enums(EBAY, POSHMARK, MERCARI, DEPOP, FACEBOOK)
// @Param        request body SaleWebhookRequest true "Sale event"
// @Success      200 {object} dto.Response{data=lifecycle.SaleResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/{platform}/sale [post]
func (h *SaleHandler) Webhook(c *gin.Context) {
	code := marketplace.PlatformCode(strings.ToUpper(c.Param("platform")))
	if !code.IsValid() {
		h.BadRequest(c, "Invalid platform code")
		return
	}

	var req SaleWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.saleService.HandleRemoteSale(
		c.Request.Context(),
		code,
		req.RemoteListingID,
		decimal.NewFromFloat(req.SoldPrice),
		req.Buyer.toInfo(),
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// StatusSyncRequest represents a request to fan a status out to platforms
// @Description Request body for syncing a status across platform copies
type StatusSyncRequest struct {
	Status  string   `json:"status" binding:"required" example:"active"`
	Exclude []string `json:"exclude" example:"EBAY"`
}

// SyncStatus godoc
// @Summary      Fan a status out to all platform copies
// @Description  Push the given status to every platform copy of a listing, reporting per-platform outcomes
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        request body StatusSyncRequest true "Target status"
// @Success      200 {object} dto.Response{data=lifecycle.SyncStatusResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id}/status-sync [post]
func (h *SaleHandler) SyncStatus(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req StatusSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	status := marketplace.ListingStatus(strings.ToLower(req.Status))
	if !status.IsValid() {
		h.BadRequest(c, "Invalid platform listing status")
		return
	}

	exclude := make([]marketplace.PlatformCode, 0, len(req.Exclude))
	for _, raw := range req.Exclude {
		code := marketplace.PlatformCode(strings.ToUpper(raw))
		if !code.IsValid() {
			h.BadRequest(c, "Invalid platform code in exclude list")
			return
		}
		exclude = append(exclude, code)
	}

	result, err := h.statusSyncService.SyncStatus(c.Request.Context(), listingID, status, exclude)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
