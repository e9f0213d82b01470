package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/application/lifecycle"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// SweepTrigger runs one retirement sweep on demand.
type SweepTrigger interface {
	TriggerImmediate(ctx context.Context) (*lifecycle.SweepResult, error)
}

// ListingArchiver runs one archival pass on demand.
type ListingArchiver interface {
	ArchiveSoldListings(ctx context.Context) (*lifecycle.ArchiveResult, error)
}

// AdminHandler exposes operator endpoints: manual sweep triggers and
// platform status overrides.
type AdminHandler struct {
	BaseHandler
	sweeper      SweepTrigger
	archiver     ListingArchiver
	platformRepo marketplace.PlatformListingRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sweeper SweepTrigger, archiver ListingArchiver, platformRepo marketplace.PlatformListingRepository) *AdminHandler {
	return &AdminHandler{
		sweeper:      sweeper,
		archiver:     archiver,
		platformRepo: platformRepo,
	}
}

// RegisterRoutes registers operator routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/sweeps/delist", h.TriggerDelistSweep)
		admin.POST("/sweeps/archive", h.TriggerArchiveSweep)
		admin.PUT("/listings/:id/platforms/:platform/status", h.OverridePlatformStatus)
	}
}

// TriggerDelistSweep godoc
// @Summary      Run a retirement sweep now
// @Description  Process all due scheduled delistings immediately instead of waiting for the next tick
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=lifecycle.SweepResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/sweeps/delist [post]
func (h *AdminHandler) TriggerDelistSweep(c *gin.Context) {
	result, err := h.sweeper.TriggerImmediate(c.Request.Context())
	if err != nil {
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, err.Error())
		return
	}
	h.Success(c, result)
}

// TriggerArchiveSweep godoc
// @Summary      Run an archival pass now
// @Description  Archive all sold listings past retention immediately
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=lifecycle.ArchiveResult}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/sweeps/archive [post]
func (h *AdminHandler) TriggerArchiveSweep(c *gin.Context) {
	result, err := h.archiver.ArchiveSoldListings(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// OverrideStatusRequest represents a manual platform status override
// @Description Request body for overriding one platform copy's status
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required" example:"pending"`
}

// OverridePlatformStatus godoc
// @Summary      Override a platform copy's status
// @Description  Set the status of one platform copy directly, with no cascading. Intended for resetting failed rows back to pending after manual cleanup.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        platform path string true "Platform code" Enums(EBAY, POSHMARK, MERCARI, DEPOP, FACEBOOK)
// @Param        request body OverrideStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=PlatformListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/listings/{id}/platforms/{platform}/status [put]
func (h *AdminHandler) OverridePlatformStatus(c *gin.Context) {
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

	var req OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	status := marketplace.ListingStatus(strings.ToLower(req.Status))
	if !status.IsValid() {
		h.BadRequest(c, "Invalid platform listing status")
		return
	}

	ctx := c.Request.Context()
	if err := h.platformRepo.UpdateStatus(ctx, listingID, code, status, time.Now().UTC()); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	pl, err := h.platformRepo.Find(ctx, listingID, code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, NewPlatformListingResponse(pl))
}
