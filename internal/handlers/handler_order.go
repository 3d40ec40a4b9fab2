package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// orderHandler handles HTTP requests related to orders.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
}

func newOrderHandler(os portssvc.OrderSvcFacade) *orderHandler {
	return &orderHandler{orderService: os}
}

// RegisterOrderRoutes registers routes related to orders.
func RegisterOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade) {
	h := newOrderHandler(orderService)

	orders := rg.Group("/orders")
	{
		orders.POST("/economics", h.computeEconomics)
		orders.POST("", h.recordOrder)
		orders.GET("", h.listOrders)
		orders.GET("/:orderID", h.getOrder)
		orders.POST("/:orderID/status", h.transitionOrder)
	}
}

// computeEconomics godoc
// @Summary Price an order
// @Description Computes distribution price, order amount, commission, balance and profit without storing anything
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   request body dto.ComputeEconomicsRequest true "Order inputs"
// @Success 200 {object} dto.OrderEconomicsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /orders/economics [post]
func (h *orderHandler) computeEconomics(c *gin.Context) {
	var req dto.ComputeEconomicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	economics, err := h.orderService.ComputeOrderEconomics(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to compute order economics")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderEconomicsResponse(economics))
}

// recordOrder godoc
// @Summary Record a paid order
// @Description Registers an order awaiting check-in and prices it
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   order body dto.RecordOrderRequest true "Order details"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 409 {object} dto.ErrorResponse "Order already exists"
// @Failure 500 {object} dto.ErrorResponse "Failed to record order"
// @Router /orders [post]
func (h *orderHandler) recordOrder(c *gin.Context) {
	var req dto.RecordOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.RecordOrder(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to record order")
		return
	}
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// getOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   orderID path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.ErrorResponse "Order not found"
// @Router /orders/{orderID} [get]
func (h *orderHandler) getOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// listOrders godoc
// @Summary List orders
// @Tags orders
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   partnerID query string false "Partner"
// @Param   status query string false "Order status"
// @Param   paymentChannel query string false "Payment channel"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Offset"
// @Success 200 {array} dto.OrderResponse
// @Router /orders [get]
func (h *orderHandler) listOrders(c *gin.Context) {
	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponses(orders))
}

// transitionOrder godoc
// @Summary Move an order out of pending check-in
// @Description Completing an order posts its revenue, partner commission and supplier cost to the ledger
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   orderID path string true "Order ID"
// @Param   request body dto.TransitionOrderRequest true "Target status"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.ErrorResponse "Order not found"
// @Failure 409 {object} dto.ErrorResponse "Order is not pending check-in"
// @Router /orders/{orderID}/status [post]
func (h *orderHandler) transitionOrder(c *gin.Context) {
	var req dto.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	orderID := c.Param("orderID")

	order, err := h.orderService.TransitionOrderStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status), operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to change order status")
		return
	}
	middleware.GetLoggerFromContext(c).Info("Order status changed", slog.String("order_id", orderID), slog.String("status", req.Status))
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}
