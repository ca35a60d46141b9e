package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayfinder/service-booking/internal/application"
	"github.com/stayfinder/service-booking/internal/platform/auth"
	"github.com/stayfinder/service-booking/internal/platform/middleware"
	"github.com/stayfinder/service-booking/internal/platform/response"
)

// ListingHandler handles HTTP requests for listing operations.
type ListingHandler struct {
	service *application.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers listing routes. Browsing and search are public;
// management requires an authenticated host.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	hostRole := middleware.RequireRole(auth.RoleHost)

	listings := r.Group("/api/v1/listings")
	{
		listings.GET("", h.SearchListings)
		listings.GET("/:id", h.GetListing)
		listings.POST("", authMW, hostRole, h.CreateListing)
		listings.PUT("/:id", authMW, hostRole, h.UpdateListing)
		listings.DELETE("/:id", authMW, hostRole, h.DeleteListing)
	}

	host := r.Group("/api/v1/host")
	host.Use(authMW, hostRole)
	{
		host.GET("/listings", h.GetMyListings)
	}
}

// SearchListings handles GET /api/v1/listings.
func (h *ListingHandler) SearchListings(c *gin.Context) {
	page, limit := parsePagination(c)

	minPrice, _ := strconv.ParseInt(c.Query("min_price_cents"), 10, 64)
	maxPrice, _ := strconv.ParseInt(c.Query("max_price_cents"), 10, 64)
	guests, _ := strconv.Atoi(c.Query("guests"))

	var amenities []string
	if raw := c.Query("amenities"); raw != "" {
		amenities = strings.Split(raw, ",")
	}

	req := application.SearchListingsRequest{
		Location:      c.Query("location"),
		MinPriceCents: minPrice,
		MaxPriceCents: maxPrice,
		Guests:        guests,
		Amenities:     amenities,
	}

	result, err := h.service.SearchListings(c.Request.Context(), req, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetListing handles GET /api/v1/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateListing handles POST /api/v1/listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateListing(c.Request.Context(), hostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateListing handles PUT /api/v1/listings/:id.
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateListing(c.Request.Context(), hostID, listingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteListing handles DELETE /api/v1/listings/:id.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteListing(c.Request.Context(), hostID, listingID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// GetMyListings handles GET /api/v1/host/listings.
func (h *ListingHandler) GetMyListings(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetHostListings(c.Request.Context(), hostID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
