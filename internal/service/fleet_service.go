package service

import (
	"strings"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"gorm.io/gorm"
)

// FleetService 承运方、车辆与司机登记服务
type FleetService struct {
	fleetRepo  repository.FleetRepository
	authorizer Authorizer
}

// NewFleetService 创建车队服务
func NewFleetService(fleetRepo repository.FleetRepository, authorizer Authorizer) *FleetService {
	return &FleetService{fleetRepo: fleetRepo, authorizer: authorizer}
}

// CreateCarrierInput 创建承运方输入
type CreateCarrierInput struct {
	Kind  string
	Name  string
	Phone string
}

// CreateTruckInput 登记车辆输入
type CreateTruckInput struct {
	CarrierID   uint
	PlateNumber string
	TruckType   string
	CapacityKg  models.Money
}

// CreateDriverInput 登记司机输入
type CreateDriverInput struct {
	CarrierID uint
	Name      string
	Phone     string
}

// CreateCarrier 管理员创建承运方档案
func (s *FleetService) CreateCarrier(actor Actor, input CreateCarrierInput) (*models.Carrier, error) {
	if err := s.requireAdmin(actor, ActionCreate); err != nil {
		return nil, err
	}
	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	name := strings.TrimSpace(input.Name)
	if name == "" || (kind != constants.CarrierKindSolo && kind != constants.CarrierKindEnterprise) {
		return nil, ErrFleetInputInvalid
	}
	carrier := &models.Carrier{
		Kind:   kind,
		Name:   name,
		Phone:  strings.TrimSpace(input.Phone),
		Status: constants.CarrierStatusActive,
	}
	if err := s.fleetRepo.CreateCarrier(carrier); err != nil {
		return nil, err
	}
	logger.Infow("carrier_created", "carrier_id", carrier.ID, "kind", carrier.Kind)
	return carrier, nil
}

// GetCarrier 获取承运方档案
func (s *FleetService) GetCarrier(actor Actor, carrierID uint) (*models.Carrier, error) {
	if err := authorize(s.authorizer, actor, ObjectFleet, ActionRead); err != nil {
		return nil, err
	}
	if actor.IsCarrier() && actor.ID != carrierID {
		return nil, ErrCarrierNotFound
	}
	carrier, err := s.fleetRepo.GetCarrierByID(carrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	return carrier, nil
}

// SetCarrierStatus 管理员启用或停用承运方
func (s *FleetService) SetCarrierStatus(actor Actor, carrierID uint, status string) (*models.Carrier, error) {
	if err := s.requireAdmin(actor, ActionAssign); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.CarrierStatusActive && status != constants.CarrierStatusSuspended {
		return nil, ErrFleetInputInvalid
	}
	carrier, err := s.fleetRepo.GetCarrierByID(carrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	if err := s.fleetRepo.UpdateCarrier(carrierID, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}
	carrier.Status = status
	logger.Infow("carrier_status_changed", "carrier_id", carrierID, "status", status, "admin_id", actor.ID)
	return carrier, nil
}

// CreateTruck 登记车辆，个体司机的首辆车作为登记车辆
func (s *FleetService) CreateTruck(actor Actor, input CreateTruckInput) (*models.Truck, error) {
	if err := s.requireAdmin(actor, ActionCreate); err != nil {
		return nil, err
	}
	plate := strings.ToUpper(strings.TrimSpace(input.PlateNumber))
	if input.CarrierID == 0 || plate == "" {
		return nil, ErrFleetInputInvalid
	}
	truck := &models.Truck{
		CarrierID:   input.CarrierID,
		PlateNumber: plate,
		TruckType:   strings.TrimSpace(input.TruckType),
		CapacityKg:  input.CapacityKg,
		IsActive:    true,
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		fleetRepo := s.fleetRepo.WithTx(tx)
		carrier, err := fleetRepo.GetCarrierByID(input.CarrierID)
		if err != nil {
			return err
		}
		if carrier == nil {
			return ErrCarrierNotFound
		}
		if err := fleetRepo.CreateTruck(truck); err != nil {
			return err
		}
		if carrier.Kind == constants.CarrierKindSolo && carrier.DefaultTruckID == nil {
			return fleetRepo.UpdateCarrier(carrier.ID, map[string]interface{}{"default_truck_id": truck.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("truck_created", "truck_id", truck.ID, "carrier_id", truck.CarrierID, "plate_number", truck.PlateNumber)
	return truck, nil
}

// CreateDriver 企业承运方登记司机
func (s *FleetService) CreateDriver(actor Actor, input CreateDriverInput) (*models.Driver, error) {
	if err := s.requireAdmin(actor, ActionCreate); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if input.CarrierID == 0 || name == "" {
		return nil, ErrFleetInputInvalid
	}
	carrier, err := s.fleetRepo.GetCarrierByID(input.CarrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	driver := &models.Driver{
		CarrierID: carrier.ID,
		Name:      name,
		Phone:     strings.TrimSpace(input.Phone),
		IsActive:  true,
	}
	if err := s.fleetRepo.CreateDriver(driver); err != nil {
		return nil, err
	}
	logger.Infow("driver_created", "driver_id", driver.ID, "carrier_id", driver.CarrierID)
	return driver, nil
}

// ListTrucks 承运方车辆列表
func (s *FleetService) ListTrucks(actor Actor, carrierID uint) ([]models.Truck, error) {
	if _, err := s.GetCarrier(actor, carrierID); err != nil {
		return nil, err
	}
	return s.fleetRepo.ListTrucksByCarrier(carrierID)
}

// ListDrivers 承运方司机列表
func (s *FleetService) ListDrivers(actor Actor, carrierID uint) ([]models.Driver, error) {
	if _, err := s.GetCarrier(actor, carrierID); err != nil {
		return nil, err
	}
	return s.fleetRepo.ListDriversByCarrier(carrierID)
}

func (s *FleetService) requireAdmin(actor Actor, action string) error {
	if err := authorize(s.authorizer, actor, ObjectFleet, action); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}
