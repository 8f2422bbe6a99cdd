package service

import (
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"gorm.io/gorm"
)

// ShipmentService 运单服务
type ShipmentService struct {
	shipmentRepo repository.ShipmentRepository
	loadRepo     repository.LoadRepository
	fleetRepo    repository.FleetRepository
	authorizer   Authorizer
}

// NewShipmentService 创建运单服务
func NewShipmentService(shipmentRepo repository.ShipmentRepository, loadRepo repository.LoadRepository, fleetRepo repository.FleetRepository, authorizer Authorizer) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		loadRepo:     loadRepo,
		fleetRepo:    fleetRepo,
		authorizer:   authorizer,
	}
}

// GetShipment 获取运单详情
func (s *ShipmentService) GetShipment(actor Actor, shipmentID uint) (*models.Shipment, error) {
	if err := authorize(s.authorizer, actor, ObjectShipments, ActionRead); err != nil {
		return nil, err
	}
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	switch {
	case actor.IsAdmin():
	case actor.IsCarrier():
		if shipment.CarrierID != actor.ID {
			return nil, ErrShipmentNotFound
		}
	case actor.IsShipper():
		load, err := s.loadRepo.GetByID(shipment.LoadID)
		if err != nil {
			return nil, err
		}
		if load == nil || load.ShipperID != actor.ID {
			return nil, ErrShipmentNotFound
		}
	default:
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// GetShipmentByLoad 根据货源获取运单
func (s *ShipmentService) GetShipmentByLoad(actor Actor, loadID uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByLoadID(loadID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return s.GetShipment(actor, shipment.ID)
}

// AssignShipmentResources 企业承运方在发车前指派司机与车辆
func (s *ShipmentService) AssignShipmentResources(actor Actor, shipmentID, driverID, truckID uint) (*models.Shipment, error) {
	if err := authorize(s.authorizer, actor, ObjectShipments, ActionAssign); err != nil {
		return nil, rejectTransition(constants.EntityShipment, err)
	}
	if driverID == 0 || truckID == 0 {
		return nil, ErrFleetInputInvalid
	}
	var shipment *models.Shipment
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		shipmentRepo := s.shipmentRepo.WithTx(tx)
		fleetRepo := s.fleetRepo.WithTx(tx)
		var err error
		shipment, err = shipmentRepo.GetByIDForUpdate(shipmentID)
		if err != nil {
			return err
		}
		if shipment == nil {
			return ErrShipmentNotFound
		}
		if !actor.IsCarrier() || shipment.CarrierID != actor.ID {
			return ErrUnauthorized
		}
		if shipment.Status != constants.ShipmentStatusAssigned {
			return ErrInvalidTransition
		}
		variant, err := loadCarrierVariant(fleetRepo, shipment.CarrierID)
		if err != nil {
			return err
		}
		if !variant.AssignsResources() {
			return ErrSoloResourceFixed
		}
		truck, err := fleetRepo.GetTruckByID(truckID)
		if err != nil {
			return err
		}
		if truck == nil {
			return ErrTruckNotFound
		}
		driver, err := fleetRepo.GetDriverByID(driverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return ErrDriverNotFound
		}
		if truck.CarrierID != shipment.CarrierID || driver.CarrierID != shipment.CarrierID || !truck.IsActive || !driver.IsActive {
			return ErrResourceNotOwned
		}
		if err := shipmentRepo.UpdateFields(shipment.ID, map[string]interface{}{
			"driver_id": driverID,
			"truck_id":  truckID,
		}); err != nil {
			return err
		}
		shipment.DriverID = &driverID
		shipment.TruckID = &truckID
		return nil
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityShipment, err)
	}
	logger.Infow("shipment_resources_assigned", "shipment_id", shipment.ID, "driver_id", driverID, "truck_id", truckID)
	return shipment, nil
}
