package admin

import (
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type createCarrierPayload struct {
	Kind  string `json:"kind" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type carrierStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

type createTruckPayload struct {
	CarrierID   uint         `json:"carrier_id" binding:"required"`
	PlateNumber string       `json:"plate_number" binding:"required"`
	TruckType   string       `json:"truck_type"`
	CapacityKg  models.Money `json:"capacity_kg"`
}

type createDriverPayload struct {
	CarrierID uint   `json:"carrier_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
}

// CreateCarrier 创建承运方档案
func (h *Handler) CreateCarrier(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createCarrierPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.fleet_input_invalid", nil)
		return
	}
	carrier, err := h.FleetService.CreateCarrier(actor, service.CreateCarrierInput{
		Kind:  req.Kind,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, carrier)
}

// SetCarrierStatus 启用/停用承运方
func (h *Handler) SetCarrierStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	carrierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req carrierStatusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.fleet_input_invalid", nil)
		return
	}
	carrier, err := h.FleetService.SetCarrierStatus(actor, carrierID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_carrier_status_changed", "carrier_id", carrierID, "status", carrier.Status)
	response.Success(c, carrier)
}

// CreateTruck 登记车辆
func (h *Handler) CreateTruck(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createTruckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.fleet_input_invalid", nil)
		return
	}
	truck, err := h.FleetService.CreateTruck(actor, service.CreateTruckInput{
		CarrierID:   req.CarrierID,
		PlateNumber: req.PlateNumber,
		TruckType:   req.TruckType,
		CapacityKg:  req.CapacityKg,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, truck)
}

// CreateDriver 登记司机
func (h *Handler) CreateDriver(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createDriverPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.fleet_input_invalid", nil)
		return
	}
	driver, err := h.FleetService.CreateDriver(actor, service.CreateDriverInput{
		CarrierID: req.CarrierID,
		Name:      req.Name,
		Phone:     req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, driver)
}
