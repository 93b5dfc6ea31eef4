package handler

import (
	"net/http"

	"parkease/internal/api/middleware"
	"parkease/internal/domain"
	"parkease/internal/service"

	"github.com/gin-gonic/gin"
)

// OwnerHandler phục vụ dashboard của chủ bãi: CRUD bãi và chỗ đỗ,
// xem booking và analytics. Mọi thao tác đều qua service với Principal
// lấy từ context, không bao giờ từ request body.
type OwnerHandler struct {
	parking service.OwnerOperations
}

func NewOwnerHandler(parking service.OwnerOperations) *OwnerHandler {
	return &OwnerHandler{parking: parking}
}

// POST /api/v1/owner/lots
func (h *OwnerHandler) CreateLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parking.CreateLot(c.Request.Context(), middleware.PrincipalFrom(c), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/v1/owner/lots
func (h *OwnerHandler) ListLots(c *gin.Context) {
	lots, err := h.parking.ListLots(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/v1/owner/lots/:id
func (h *OwnerHandler) GetLot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	lot, err := h.parking.GetLot(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// PUT /api/v1/owner/lots/:id
func (h *OwnerHandler) UpdateLot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parking.UpdateLot(c.Request.Context(), middleware.PrincipalFrom(c), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/v1/owner/lots/:id
func (h *OwnerHandler) DeleteLot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.parking.DeleteLot(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// POST /api/v1/owner/lots/:id/spots
func (h *OwnerHandler) AddSpot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var dto domain.ParkingSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.parking.AddSpot(c.Request.Context(), middleware.PrincipalFrom(c), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spot)
}

// PUT /api/v1/owner/spots/:spot_id
func (h *OwnerHandler) UpdateSpot(c *gin.Context) {
	id, ok := pathID(c, "spot_id")
	if !ok {
		return
	}

	var dto domain.ParkingSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.parking.UpdateSpot(c.Request.Context(), middleware.PrincipalFrom(c), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /api/v1/owner/spots/:spot_id
func (h *OwnerHandler) DeleteSpot(c *gin.Context) {
	id, ok := pathID(c, "spot_id")
	if !ok {
		return
	}

	if err := h.parking.DeleteSpot(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// GET /api/v1/owner/lots/:id/bookings
func (h *OwnerHandler) ListLotBookings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.parking.ListLotBookings(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /api/v1/owner/lots/:id/analytics
func (h *OwnerHandler) LotAnalytics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	analytics, err := h.parking.LotAnalytics(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GET /api/v1/owner/spots/:spot_id/price-suggestion
func (h *OwnerHandler) SuggestSpotPrice(c *gin.Context) {
	id, ok := pathID(c, "spot_id")
	if !ok {
		return
	}

	suggestion, err := h.parking.SuggestSpotPrice(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
