package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"sokoni/internal/middleware"
	"sokoni/internal/repository"
	"sokoni/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Create handles POST /payments — multipart form with a "screenshot" image
// and "amount_cents".
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	amountCents, err := strconv.ParseInt(c.PostForm("amount_cents"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be an integer"})
		return
	}
	file, err := c.FormFile("screenshot")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingArtifact.Error()})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read screenshot"})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read screenshot"})
		return
	}

	p, err := h.svc.Submit(c.Request.Context(), userID, amountCents, content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingArtifact), errors.Is(err, repository.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrArtifactUpload):
			log.Printf("[payment] submit failed for user=%d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrArtifactUpload.Error()})
		default:
			log.Printf("[payment] submit failed for user=%d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// History handles GET /payments/history — the caller's own payments, newest first.
func (h *PaymentHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	payments, err := h.svc.History(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payment history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PATCH /payments/:id/status — admin resolves a pending
// payment to verified or rejected.
func (h *PaymentHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.SetStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPaymentNotFound), errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[payment] set status failed for id=%d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

// ListAll handles GET /payments — admin view, pending first then oldest first.
func (h *PaymentHandler) ListAll(c *gin.Context) {
	payments, err := h.svc.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GetByID handles GET /payments/:id (admin).
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	p, err := h.svc.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
