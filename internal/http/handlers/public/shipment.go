package public

import (
	"github.com/freightlane/internal/http/response"

	"github.com/gin-gonic/gin"
)

type assignResourcesPayload struct {
	DriverID uint `json:"driver_id" binding:"required"`
	TruckID  uint `json:"truck_id" binding:"required"`
}

type otpRequestPayload struct {
	RequestType string `json:"request_type" binding:"required"`
}

type otpVerifyPayload struct {
	RequestType string `json:"request_type" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// GetShipment 运单详情
func (h *Handler) GetShipment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shipmentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.GetShipment(actor, shipmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, shipment)
}

// AssignShipmentResources 企业承运方指派司机与车辆
func (h *Handler) AssignShipmentResources(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shipmentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req assignResourcesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	shipment, err := h.ShipmentService.AssignShipmentResources(actor, shipmentID, req.DriverID, req.TruckID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, shipment)
}

// RequestOtp 承运方申请行程验证码
func (h *Handler) RequestOtp(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shipmentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req otpRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.request_type_invalid", nil)
		return
	}
	request, err := h.OtpService.RequestOtp(actor, shipmentID, req.RequestType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, request)
}

// VerifyOtp 承运方核验验证码并推进行程
func (h *Handler) VerifyOtp(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shipmentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req otpVerifyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.OtpService.VerifyOtp(actor, shipmentID, req.RequestType, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
