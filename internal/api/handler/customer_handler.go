package handler

import (
	"context"
	"net/http"

	"parkease/internal/api/middleware"
	"parkease/internal/domain"
	"parkease/internal/service"

	"github.com/gin-gonic/gin"
)

type searcher interface {
	Search(ctx context.Context, principal domain.Principal, dto domain.SearchRequestDTO) ([]domain.SearchMatch, error)
}

// CustomerHandler phục vụ khách đặt chỗ: xem bãi, tìm kiếm, đặt và
// kết thúc booking.
type CustomerHandler struct {
	bookings service.CustomerOperations
	search   searcher
}

func NewCustomerHandler(bookings service.CustomerOperations, search searcher) *CustomerHandler {
	return &CustomerHandler{bookings: bookings, search: search}
}

// GET /api/v1/customer/lots/:id
func (h *CustomerHandler) BrowseLot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	lot, err := h.bookings.BrowseLot(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// POST /api/v1/customer/search
func (h *CustomerHandler) Search(c *gin.Context) {
	var dto domain.SearchRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.search.Search(c.Request.Context(), middleware.PrincipalFrom(c), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

// POST /api/v1/customer/bookings
func (h *CustomerHandler) BookSpot(c *gin.Context) {
	var dto domain.CreateBookingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookings.BookSpot(c.Request.Context(), middleware.PrincipalFrom(c), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// POST /api/v1/bookings/:id/end
// Route dùng chung: customer đóng booking của mình, owner đóng booking
// trong bãi của mình.
func (h *CustomerHandler) EndBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.EndBooking(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// GET /api/v1/customer/bookings
func (h *CustomerHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBookings(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /api/v1/bookings/:id
func (h *CustomerHandler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
