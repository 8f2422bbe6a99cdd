package repository

import (
	"errors"

	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShipmentRepository 运单数据访问接口
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	GetByID(id uint) (*models.Shipment, error)
	GetByIDForUpdate(id uint) (*models.Shipment, error)
	GetByLoadID(loadID uint) (*models.Shipment, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormShipmentRepository
}

// GormShipmentRepository GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建运单仓库
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) *GormShipmentRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRepository{db: tx}
}

// Create 创建运单
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Create(shipment).Error
}

// GetByID 根据 ID 获取运单
func (r *GormShipmentRepository) GetByID(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.First(&shipment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByIDForUpdate 加锁获取运单
func (r *GormShipmentRepository) GetByIDForUpdate(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&shipment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByLoadID 根据货源获取运单
func (r *GormShipmentRepository) GetByLoadID(loadID uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Where("load_id = ?", loadID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// TransitionStatus 条件更新运单状态
func (r *GormShipmentRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	return compareAndSetStatus(r.db, &models.Shipment{}, id, from, to, updates)
}

// UpdateFields 更新运单字段
func (r *GormShipmentRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Updates(updates).Error
}
