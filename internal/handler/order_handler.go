package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"sokoni/internal/middleware"
	"sokoni/internal/repository"
	"sokoni/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type PlaceOrderRequest struct {
	ItemType  string  `json:"item_type" binding:"required,oneof=PRODUCT SERVICE"`
	ItemID    uint    `json:"item_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place handles POST /orders.
func (h *OrderHandler) Place(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	o, err := h.svc.Place(userID, req.ItemType, req.ItemID, req.Quantity, req.Latitude, req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidItemType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[order] place failed for user=%d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": o})
}

// MyOrders handles GET /orders/my-orders.
func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.svc.MyOrders(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// ListAll handles GET /orders (admin).
func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.svc.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PATCH /orders/:id/status (admin).
func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.SetStatus(uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// VerifyPayment handles PATCH /orders/:id/payment-status (admin) — marks the
// order paid and debits the buyer's credit balance.
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, err := h.svc.VerifyPayment(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOrderAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			log.Printf("[order] verify payment failed for id=%d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify order payment"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// Nearby handles GET /orders/nearby?lat=&lng=&radius_km= (admin).
func (h *OrderHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	radiusKm := 10.0
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius_km must be a positive number"})
			return
		}
		radiusKm = r
	}
	orders, err := h.svc.Nearby(lat, lng, radiusKm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
