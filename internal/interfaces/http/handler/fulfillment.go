package handler

import (
	"github.com/gin-gonic/gin"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// FulfillmentHandler exposes fulfillment synchronization over HTTP
type FulfillmentHandler struct {
	BaseHandler
	service *appfulfillment.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(service *appfulfillment.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{service: service}
}

// FulfillmentRoutes creates the route group for fulfillment orders
func FulfillmentRoutes(h *FulfillmentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("fulfillment", "/fulfillment-orders")

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.GetByID)
	group.GET("/:id/validation", h.GetValidation)
	group.GET("/:id/history", h.GetHistory)
	group.GET("/:id/supplier-payload", h.GetSupplierPayload)

	group.POST("/:id/status", h.TransitionStatus)
	group.POST("/:id/tracking", h.AttachTracking)
	group.POST("/:id/supplier-order", h.RecordSupplierOrder)

	return group
}

// Create creates the fulfillment order for a confirmed customer order
// POST /fulfillment-orders
func (h *FulfillmentHandler) Create(c *gin.Context) {
	var req appfulfillment.CreateFulfillmentOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.service.CreateFromCustomerOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List lists fulfillment orders, newest first
// GET /fulfillment-orders?status=&page=&page_size=
func (h *FulfillmentHandler) List(c *gin.Context) {
	var filter appfulfillment.FulfillmentOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Orders, result.Pagination.Total, result.Pagination.Page, result.Pagination.PageSize)
}

// GetByID returns one order with items, product sources, customer order and shipment
// GET /fulfillment-orders/:id
func (h *FulfillmentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	order, err := h.service.GetDetails(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetValidation reports whether the order can be fulfilled
// GET /fulfillment-orders/:id/validation
func (h *FulfillmentHandler) GetValidation(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.service.GetValidation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetHistory returns the lifecycle derived from the order's stage timestamps
// GET /fulfillment-orders/:id/history
func (h *FulfillmentHandler) GetHistory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// GetSupplierPayload returns the payload used to place the order with the supplier
// GET /fulfillment-orders/:id/supplier-payload
func (h *FulfillmentHandler) GetSupplierPayload(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	payload, err := h.service.PrepareForSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payload)
}

// TransitionStatus moves the order to a new status
// POST /fulfillment-orders/:id/status
func (h *FulfillmentHandler) TransitionStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appfulfillment.TransitionStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.service.TransitionStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// AttachTracking records carrier details on the order and its shipment
// POST /fulfillment-orders/:id/tracking
func (h *FulfillmentHandler) AttachTracking(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appfulfillment.AttachTrackingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tracking, err := h.service.AttachTracking(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tracking)
}

// RecordSupplierOrder stores the supplier's order identifier
// POST /fulfillment-orders/:id/supplier-order
func (h *FulfillmentHandler) RecordSupplierOrder(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appfulfillment.RecordSupplierOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.service.RecordSupplierOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
