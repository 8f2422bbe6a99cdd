package public

import (
	"strings"
	"time"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type createLoadPayload struct {
	PickupLocation  string       `json:"pickup_location" binding:"required"`
	PickupAt        *time.Time   `json:"pickup_at"`
	DropoffLocation string       `json:"dropoff_location" binding:"required"`
	WeightKg        models.Money `json:"weight_kg"`
	TruckType       string       `json:"truck_type"`
	Description     string       `json:"description"`
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

type updateLoadStatusPayload struct {
	Status string        `json:"status" binding:"required"`
	Price  *models.Money `json:"price"`
	Reason string        `json:"reason"`
}

// CreateLoad 货主发布货源
func (h *Handler) CreateLoad(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createLoadPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	load, err := h.LoadService.CreateLoad(actor, service.CreateLoadInput{
		PickupLocation:  req.PickupLocation,
		PickupAt:        req.PickupAt,
		DropoffLocation: req.DropoffLocation,
		WeightKg:        req.WeightKg,
		TruckType:       req.TruckType,
		Description:     req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// ListLoads 货源列表，按角色限定可见范围
func (h *Handler) ListLoads(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	filter := repository.LoadListFilter{
		Page:      page,
		PageSize:  pageSize,
		ShipperID: shared.ParseOptionalUintQuery(c, "shipper_id"),
		CarrierID: shared.ParseOptionalUintQuery(c, "carrier_id"),
		Keyword:   strings.TrimSpace(c.Query("keyword")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		filter.Statuses = strings.Split(raw, ",")
	}
	loads, total, err := h.LoadService.ListLoads(actor, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, loads, shared.BuildPagination(page, pageSize, total))
}

// GetLoad 货源详情
func (h *Handler) GetLoad(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	load, err := h.LoadService.GetLoad(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// UpdateLoadStatus 按目标状态分发货源流转
func (h *Handler) UpdateLoadStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateLoadStatusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.target_status_invalid", nil)
		return
	}
	load, err := h.LoadService.UpdateLoadStatus(actor, loadID, service.UpdateLoadStatusInput{
		Status: req.Status,
		Price:  req.Price,
		Reason: req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// CancelLoad 取消货源
func (h *Handler) CancelLoad(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reasonPayload
	_ = c.ShouldBindJSON(&req)
	load, err := h.LoadService.CancelLoad(actor, loadID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// MakeLoadUnavailable 下架货源
func (h *Handler) MakeLoadUnavailable(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reasonPayload
	_ = c.ShouldBindJSON(&req)
	load, err := h.LoadService.MakeLoadUnavailable(actor, loadID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// ResubmitLoad 重新提交下架货源
func (h *Handler) ResubmitLoad(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	load, err := h.LoadService.ResubmitLoad(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// GetLoadShipment 货源对应运单
func (h *Handler) GetLoadShipment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.GetShipmentByLoad(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, shipment)
}

// GetLoadInvoice 货源对应账单
func (h *Handler) GetLoadInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.GetInvoiceByLoad(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, invoice)
}
