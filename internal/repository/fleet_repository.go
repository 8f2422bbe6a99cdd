package repository

import (
	"errors"

	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
)

// FleetRepository 承运方、车辆、司机数据访问接口
type FleetRepository interface {
	CreateCarrier(carrier *models.Carrier) error
	GetCarrierByID(id uint) (*models.Carrier, error)
	UpdateCarrier(id uint, updates map[string]interface{}) error
	CreateTruck(truck *models.Truck) error
	GetTruckByID(id uint) (*models.Truck, error)
	ListTrucksByCarrier(carrierID uint) ([]models.Truck, error)
	CreateDriver(driver *models.Driver) error
	GetDriverByID(id uint) (*models.Driver, error)
	ListDriversByCarrier(carrierID uint) ([]models.Driver, error)
	WithTx(tx *gorm.DB) *GormFleetRepository
}

// GormFleetRepository GORM 实现
type GormFleetRepository struct {
	db *gorm.DB
}

// NewFleetRepository 创建车队仓库
func NewFleetRepository(db *gorm.DB) *GormFleetRepository {
	return &GormFleetRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFleetRepository) WithTx(tx *gorm.DB) *GormFleetRepository {
	if tx == nil {
		return r
	}
	return &GormFleetRepository{db: tx}
}

// CreateCarrier 创建承运方
func (r *GormFleetRepository) CreateCarrier(carrier *models.Carrier) error {
	return r.db.Create(carrier).Error
}

// GetCarrierByID 获取承运方
func (r *GormFleetRepository) GetCarrierByID(id uint) (*models.Carrier, error) {
	var carrier models.Carrier
	if err := r.db.First(&carrier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &carrier, nil
}

// UpdateCarrier 更新承运方
func (r *GormFleetRepository) UpdateCarrier(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Carrier{}).Where("id = ?", id).Updates(updates).Error
}

// CreateTruck 登记车辆
func (r *GormFleetRepository) CreateTruck(truck *models.Truck) error {
	return r.db.Create(truck).Error
}

// GetTruckByID 获取车辆
func (r *GormFleetRepository) GetTruckByID(id uint) (*models.Truck, error) {
	var truck models.Truck
	if err := r.db.First(&truck, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &truck, nil
}

// ListTrucksByCarrier 承运方车辆列表
func (r *GormFleetRepository) ListTrucksByCarrier(carrierID uint) ([]models.Truck, error) {
	var trucks []models.Truck
	err := r.db.Where("carrier_id = ?", carrierID).Order("id asc").Find(&trucks).Error
	return trucks, err
}

// CreateDriver 登记司机
func (r *GormFleetRepository) CreateDriver(driver *models.Driver) error {
	return r.db.Create(driver).Error
}

// GetDriverByID 获取司机
func (r *GormFleetRepository) GetDriverByID(id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

// ListDriversByCarrier 承运方司机列表
func (r *GormFleetRepository) ListDriversByCarrier(carrierID uint) ([]models.Driver, error) {
	var drivers []models.Driver
	err := r.db.Where("carrier_id = ?", carrierID).Order("id asc").Find(&drivers).Error
	return drivers, err
}
