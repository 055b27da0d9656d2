package handler

import (
	"log"
	"net/http"
	"strconv"

	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/staging"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	serviceRepo *repository.ServiceRepository
	stager      *staging.Stager
}

func NewServiceHandler(serviceRepo *repository.ServiceRepository, stager *staging.Stager) *ServiceHandler {
	return &ServiceHandler{serviceRepo: serviceRepo, stager: stager}
}

// Create handles POST /services (admin).
func (h *ServiceHandler) Create(c *gin.Context) {
	priceCents, err := strconv.ParseInt(c.PostForm("price_cents"), 10, 64)
	if err != nil || priceCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_cents must be a positive integer"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	imageURL, err := stageFormImage(c, h.stager)
	if err != nil {
		log.Printf("[service] image upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
		return
	}
	s := &models.Service{
		Name:        name,
		Description: c.PostForm("description"),
		PriceCents:  priceCents,
		Category:    c.PostForm("category"),
		ImageURL:    imageURL,
	}
	if err := h.serviceRepo.Create(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create service"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"service": s})
}

// Update handles PATCH /services/:id (admin).
func (h *ServiceHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	s, err := h.serviceRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	if v := c.PostForm("name"); v != "" {
		s.Name = v
	}
	if v := c.PostForm("description"); v != "" {
		s.Description = v
	}
	if v := c.PostForm("category"); v != "" {
		s.Category = v
	}
	if v := c.PostForm("price_cents"); v != "" {
		priceCents, err := strconv.ParseInt(v, 10, 64)
		if err != nil || priceCents <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price_cents must be a positive integer"})
			return
		}
		s.PriceCents = priceCents
	}
	imageURL, err := stageFormImage(c, h.stager)
	if err != nil {
		log.Printf("[service] image upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
		return
	}
	if imageURL != "" {
		s.ImageURL = imageURL
	}
	if err := h.serviceRepo.Update(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update service"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": s})
}

// List handles GET /services.
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.serviceRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetByID handles GET /services/:id.
func (h *ServiceHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	s, err := h.serviceRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": s})
}

// ListByCategory handles GET /services/category/:category.
func (h *ServiceHandler) ListByCategory(c *gin.Context) {
	services, err := h.serviceRepo.ListByCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// Delete handles DELETE /services/:id (admin).
func (h *ServiceHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	if _, err := h.serviceRepo.GetByID(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	if err := h.serviceRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete service"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}
