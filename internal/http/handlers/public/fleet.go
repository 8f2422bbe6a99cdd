package public

import (
	"github.com/freightlane/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCarrier 承运方档案
func (h *Handler) GetCarrier(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	carrierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	carrier, err := h.FleetService.GetCarrier(actor, carrierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, carrier)
}

// ListCarrierTrucks 承运方车辆
func (h *Handler) ListCarrierTrucks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	carrierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	trucks, err := h.FleetService.ListTrucks(actor, carrierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, trucks)
}

// ListCarrierDrivers 承运方司机
func (h *Handler) ListCarrierDrivers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	carrierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	drivers, err := h.FleetService.ListDrivers(actor, carrierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, drivers)
}
