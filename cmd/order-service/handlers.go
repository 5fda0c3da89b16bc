package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mvergara-dev/shop-services/internal/httpx"
	"github.com/mvergara-dev/shop-services/internal/order"
)

// createOrderHandler godoc
// @Summary Create an order
// @Accept json
// @Produce json
// @Param payload body order.CreateOrderRequest true "order to create"
// @Success 201 {object} order.Order
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/orders [post]
func createOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.CreateOrder(c.Request.Context(), httpx.CurrentUserID(c), req)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// getOrderHandler godoc
// @Summary Get one order by id
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} order.Order
// @Failure 404 {object} map[string]string
// @Router /api/orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetOrder(c.Request.Context(), c.Param("id"), httpx.CurrentUserID(c))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// listOrdersHandler godoc
// @Summary List the caller's orders
// @Produce json
// @Param status query string false "filter by status"
// @Param page query int false "page (1-based)"
// @Param limit query int false "page size (max 100)"
// @Success 200 {object} order.ListResponse
// @Router /api/orders [get]
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if page < 1 {
			page = 1
		}
		if limit <= 0 || limit > 100 {
			limit = 10
		}
		f := order.ListFilter{
			Status: order.Status(c.Query("status")),
			Page:   page,
			Limit:  limit,
		}

		orders, total, err := svc.ListOrders(c.Request.Context(), httpx.CurrentUserID(c), f)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, order.ListResponse{
			Orders: orders,
			Pagination: order.Pagination{
				Page:  page,
				Limit: limit,
				Total: total,
				Pages: (total + limit - 1) / limit,
			},
		})
	}
}

// updateOrderStatusHandler godoc
// @Summary Set an order's status
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param payload body order.UpdateStatusRequest true "target status"
// @Success 200 {object} order.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/orders/{id}/status [put]
func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), httpx.CurrentUserID(c), req.Status)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelOrderHandler godoc
// @Summary Cancel an order
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} order.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/orders/{id}/cancel [post]
func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.CancelOrder(c.Request.Context(), c.Param("id"), httpx.CurrentUserID(c))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// writeOrderError maps the orchestrator's error taxonomy to HTTP.
func writeOrderError(c *gin.Context, err error) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
		return
	}

	var uerr *order.UnavailableError
	if errors.As(err, &uerr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":              uerr.Error(),
			"product_id":         uerr.ProductID,
			"available_stock":    uerr.AvailableStock,
			"requested_quantity": uerr.RequestedQuantity,
		})
		return
	}

	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, order.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is already cancelled"})
	case errors.Is(err, order.ErrCannotCancel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot cancel order that is already shipped or delivered"})
	default:
		var derr *order.DependencyError
		if errors.As(err, &derr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "product service unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
