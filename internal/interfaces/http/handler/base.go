package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key populated by the request id middleware
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// domainErrorCodes maps domain sentinel errors to API error codes. Anything
// not listed here falls through as an internal error.
var domainErrorCodes = []struct {
	err  error
	code string
}{
	{listing.ErrListingNotFound, dto.ErrCodeNotFound},
	{listing.ErrListingAlreadySold, dto.ErrCodeAlreadySold},
	{listing.ErrNotSellable, dto.ErrCodeNotSellable},
	{listing.ErrNotArchivable, dto.ErrCodeInvalidState},
	{listing.ErrInvalidTitle, dto.ErrCodeInvalidInput},
	{listing.ErrInvalidPrice, dto.ErrCodeInvalidInput},
	{listing.ErrInvalidQuantity, dto.ErrCodeInvalidInput},
	{listing.ErrInvalidStatus, dto.ErrCodeInvalidState},

	{marketplace.ErrPlatformListingNotFound, dto.ErrCodeNotFound},
	{marketplace.ErrRemoteListingNotFound, dto.ErrCodeNotFound},
	{marketplace.ErrUnknownPlatform, dto.ErrCodeNotFound},
	{marketplace.ErrPlatformListingExists, dto.ErrCodeAlreadyExists},
	{marketplace.ErrAlreadySold, dto.ErrCodeAlreadySold},
	{marketplace.ErrInvalidTransition, dto.ErrCodeInvalidState},
	{marketplace.ErrInvalidPlatformCode, dto.ErrCodeInvalidInput},
	{marketplace.ErrInvalidPlatformStatus, dto.ErrCodeInvalidInput},
	{marketplace.ErrMissingRemoteListingID, dto.ErrCodeInvalidState},
	{marketplace.ErrAdapterUnavailable, dto.ErrCodeUpstream},
	{marketplace.ErrAdapterRequestFailed, dto.ErrCodeUpstream},
	{marketplace.ErrAdapterInvalidResponse, dto.ErrCodeUpstream},
	{marketplace.ErrPlatformNotConfigured, dto.ErrCodeInvalidState},
}

// HandleDomainError converts domain errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	requestID := getRequestID(c)

	for _, m := range domainErrorCodes {
		if errors.Is(err, m.err) {
			statusCode := dto.GetHTTPStatus(m.code)
			c.JSON(statusCode, dto.NewErrorResponseWithRequestID(m.code, m.err.Error(), requestID))
			return
		}
	}

	// Unknown error type - return as internal error
	h.InternalError(c, "An unexpected error occurred")
}
