package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/application/lifecycle"
	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// ListingHandler handles listing-related API endpoints
type ListingHandler struct {
	BaseHandler
	listingService *lifecycle.ListingService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *lifecycle.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// RegisterRoutes registers listing routes
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	listings := rg.Group("/listings")
	{
		listings.POST("", h.Create)
		listings.GET("", h.List)
		listings.GET("/:id", h.GetByID)
		listings.POST("/:id/publish/:platform", h.Publish)
		listings.GET("/:id/platforms", h.GetPlatforms)
		listings.GET("/:id/sync-log", h.GetSyncLog)
	}
}

// CreateListingRequest represents a request to create a new listing
// @Description Request body for creating a new listing
type CreateListingRequest struct {
	Title           string   `json:"title" binding:"required,min=1,max=255" example:"Vintage Denim Jacket"`
	Price           float64  `json:"price" binding:"min=0" example:"45.50"`
	Cost            *float64 `json:"cost" binding:"omitempty,min=0" example:"12.00"`
	Quantity        int      `json:"quantity" binding:"min=0" example:"1"`
	StorageLocation string   `json:"storage_location" binding:"max=120" example:"Bin A3"`
}

// Create godoc
// @Summary      Create a new listing
// @Description  Create a draft listing ready to be published to marketplaces
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        request body CreateListingRequest true "Listing creation request"
// @Success      201 {object} dto.Response{data=ListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	in := lifecycle.CreateListingInput{
		Title:           req.Title,
		Price:           decimal.NewFromFloat(req.Price),
		Quantity:        req.Quantity,
		StorageLocation: req.StorageLocation,
	}
	if req.Cost != nil {
		cost := decimal.NewFromFloat(*req.Cost)
		in.Cost = &cost
	}

	l, err := h.listingService.CreateListing(c.Request.Context(), in)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, NewListingResponse(l))
}

// GetByID godoc
// @Summary      Get listing by ID
// @Description  Retrieve a listing by its ID
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} dto.Response{data=ListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id} [get]
func (h *ListingHandler) GetByID(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	l, err := h.listingService.GetListing(c.Request.Context(), listingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, NewListingResponse(l))
}

// List godoc
// @Summary      List listings
// @Description  Retrieve a paginated list of listings with optional filtering
// @Tags         listings
// @Produce      json
// @Param        status query string false "Canonical status" Enums(draft, active, sold, archived)
// @Param        search query string false "Search term (title)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]ListingResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := listing.ListingFilter{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := listing.Status(strings.ToLower(req.Status))
		if !status.IsValid() {
			h.BadRequest(c, "Invalid listing status")
			return
		}
		filter.Status = &status
	}

	items, total, err := h.listingService.ListListings(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, NewListingListResponse(items), total, req.Page, req.PageSize)
}

// Publish godoc
// @Summary      Publish a listing to a marketplace
// @Description  Create the listing on the marketplace and activate the platform copy
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        platform path string true "Platform code" Enums(EBAY, POSHMARK, MERCARI, DEPOP, FACEBOOK)
// @Success      201 {object} dto.Response{data=PlatformListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id}/publish/{platform} [post]
func (h *ListingHandler) Publish(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	code := marketplace.PlatformCode(strings.ToUpper(c.Param("platform")))
	if !code.IsValid() {
		h.BadRequest(c, "Invalid platform code")
		return
	}

	pl, err := h.listingService.PublishToPlatform(c.Request.Context(), listingID, code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, NewPlatformListingResponse(pl))
}

// GetPlatforms godoc
// @Summary      Get platform copies of a listing
// @Description  Retrieve every per-platform copy of a listing
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]PlatformListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id}/platforms [get]
func (h *ListingHandler) GetPlatforms(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	platforms, err := h.listingService.GetPlatformListings(c.Request.Context(), listingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, NewPlatformListingListResponse(platforms))
}

// GetSyncLog godoc
// @Summary      Get the sync log of a listing
// @Description  Retrieve the append-only audit trail for a listing, newest first
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        limit query int false "Maximum entries" default(100) maximum(500)
// @Success      200 {object} dto.Response{data=[]SyncLogEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id}/sync-log [get]
func (h *ListingHandler) GetSyncLog(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid limit")
			return
		}
	}

	entries, err := h.listingService.GetSyncLog(c.Request.Context(), listingID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, NewSyncLogResponse(entries))
}
