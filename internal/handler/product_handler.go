package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/staging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	productRepo *repository.ProductRepository
	stager      *staging.Stager
}

func NewProductHandler(productRepo *repository.ProductRepository, stager *staging.Stager) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, stager: stager}
}

// stageFormImage reads an optional multipart "image" field and stages it,
// returning "" when the field is absent.
func stageFormImage(c *gin.Context, stager *staging.Stager) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return stager.Stage(c.Request.Context(), content)
}

// Create handles POST /products (admin) — multipart form with product fields
// and an optional image.
func (h *ProductHandler) Create(c *gin.Context) {
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
	stock, _ := strconv.Atoi(c.PostForm("stock"))

	imageURL, err := stageFormImage(c, h.stager)
	if err != nil {
		log.Printf("[product] image upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
		return
	}
	p := &models.Product{
		Name:        name,
		Description: c.PostForm("description"),
		PriceCents:  priceCents,
		Category:    c.PostForm("category"),
		Stock:       stock,
		ImageURL:    imageURL,
	}
	if err := h.productRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

// Update handles PATCH /products/:id (admin).
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if v := c.PostForm("name"); v != "" {
		p.Name = v
	}
	if v := c.PostForm("description"); v != "" {
		p.Description = v
	}
	if v := c.PostForm("category"); v != "" {
		p.Category = v
	}
	if v := c.PostForm("price_cents"); v != "" {
		priceCents, err := strconv.ParseInt(v, 10, 64)
		if err != nil || priceCents <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price_cents must be a positive integer"})
			return
		}
		p.PriceCents = priceCents
	}
	imageURL, err := stageFormImage(c, h.stager)
	if err != nil {
		log.Printf("[product] image upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
		return
	}
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetByID handles GET /products/:id.
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// ListByCategory handles GET /products/category/:category.
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	products, err := h.productRepo.ListByCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Delete handles DELETE /products/:id (admin).
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if _, err := h.productRepo.GetByID(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err := h.productRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

type UpdateStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// UpdateStock handles PATCH /products/stock/:id (admin).
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || *req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be a non-negative integer"})
		return
	}
	if err := h.productRepo.SetStock(uint(id), *req.Stock); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update stock"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stock updated"})
}
