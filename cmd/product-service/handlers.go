package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvergara-dev/shop-services/internal/product"
)

// listProductsHandler godoc
// @Summary List products
// @Produce json
// @Param status query string false "filter by status"
// @Param category query string false "filter by category"
// @Param page query int false "page (1-based)"
// @Param limit query int false "page size (max 100)"
// @Success 200 {object} product.ListResponse
// @Router /api/products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if page < 1 {
			page = 1
		}
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		items, total, err := repo.List(c.Request.Context(), product.Query{
			Status:   c.Query("status"),
			Category: c.Query("category"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{
			Items: items,
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		})
	}
}

// getProductHandler godoc
// @Summary Get one product by id
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} product.Product
// @Failure 404 {object} product.HTTPError
// @Router /api/products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler godoc
// @Summary Create a product
// @Accept json
// @Produce json
// @Param payload body product.CreateProductRequest true "product to create"
// @Success 201 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Router /api/products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Name == "" || req.Price == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and price are required"})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative decimal"})
			return
		}
		if req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
			return
		}
		status := product.Status(req.Status)
		if req.Status == "" {
			status = product.StatusActive
		} else if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		p := &product.Product{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       price.StringFixed(2),
			Stock:       req.Stock,
			Status:      status,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler godoc
// @Summary Partially update a product
// @Accept json
// @Produce json
// @Param id path string true "product id"
// @Param payload body product.UpdateProductRequest true "fields to update"
// @Success 200 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Failure 404 {object} product.HTTPError
// @Router /api/products/{id} [put]
func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Status != "" && !product.Status(req.Status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		p := &product.Product{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Status:      product.Status(req.Status),
		}

		updatePrice := req.Price != ""
		if updatePrice {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative decimal"})
				return
			}
			p.Price = price.StringFixed(2)
		}

		updateStock := req.Stock != nil
		if updateStock {
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
				return
			}
			p.Stock = *req.Stock
		}

		if err := repo.Update(c.Request.Context(), p, updatePrice, updateStock); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		out, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// deleteProductHandler godoc
// @Summary Delete a product
// @Produce json
// @Param id path string true "product id"
// @Success 204 "deleted"
// @Failure 404 {object} product.HTTPError
// @Router /api/products/{id} [delete]
func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// availabilityHandler godoc
// @Summary Check whether a quantity of a product can be ordered
// @Produce json
// @Param id path string true "product id"
// @Param quantity query int false "requested quantity (default 1)"
// @Success 200 {object} product.AvailabilityResponse
// @Failure 400 {object} product.HTTPError
// @Failure 404 {object} product.HTTPError
// @Router /api/products/{id}/availability [get]
func availabilityHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		qty, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
		if err != nil || qty < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive integer"})
			return
		}
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, product.AvailabilityResponse{
			Available:         p.AvailableFor(qty),
			ProductID:         p.ID,
			Stock:             p.Stock,
			RequestedQuantity: qty,
		})
	}
}
