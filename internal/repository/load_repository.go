package repository

import (
	"errors"
	"strings"

	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadRepository 货源数据访问接口
type LoadRepository interface {
	Create(load *models.Load) error
	GetByID(id uint) (*models.Load, error)
	GetByIDForUpdate(id uint) (*models.Load, error)
	GetByReferenceNo(referenceNo string) (*models.Load, error)
	List(filter LoadListFilter) ([]models.Load, int64, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormLoadRepository
}

// GormLoadRepository GORM 实现
type GormLoadRepository struct {
	db *gorm.DB
}

// NewLoadRepository 创建货源仓库
func NewLoadRepository(db *gorm.DB) *GormLoadRepository {
	return &GormLoadRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoadRepository) WithTx(tx *gorm.DB) *GormLoadRepository {
	if tx == nil {
		return r
	}
	return &GormLoadRepository{db: tx}
}

// Create 创建货源并回填编号
func (r *GormLoadRepository) Create(load *models.Load) error {
	if err := r.db.Create(load).Error; err != nil {
		return err
	}
	load.ReferenceNo = models.FormatLoadReferenceNo(load.ID)
	return r.db.Model(&models.Load{}).Where("id = ?", load.ID).Update("reference_no", load.ReferenceNo).Error
}

// GetByID 根据 ID 获取货源
func (r *GormLoadRepository) GetByID(id uint) (*models.Load, error) {
	var load models.Load
	if err := r.db.First(&load, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &load, nil
}

// GetByIDForUpdate 加锁获取货源（sqlite 忽略行锁）
func (r *GormLoadRepository) GetByIDForUpdate(id uint) (*models.Load, error) {
	var load models.Load
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&load, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &load, nil
}

// GetByReferenceNo 根据编号获取货源
func (r *GormLoadRepository) GetByReferenceNo(referenceNo string) (*models.Load, error) {
	var load models.Load
	if err := r.db.Where("reference_no = ?", strings.TrimSpace(referenceNo)).First(&load).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &load, nil
}

// List 货源列表
func (r *GormLoadRepository) List(filter LoadListFilter) ([]models.Load, int64, error) {
	query := r.db.Model(&models.Load{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ShipperID != 0 {
		query = query.Where("shipper_id = ?", filter.ShipperID)
	}
	if filter.CarrierID != 0 {
		query = query.Where("assigned_carrier_id = ?", filter.CarrierID)
	}
	if condition, args := keywordMatch(r.db, filter.Keyword, "reference_no", "pickup_location", "dropoff_location"); condition != "" {
		query = query.Where(condition, args...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loads []models.Load
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&loads).Error; err != nil {
		return nil, 0, err
	}
	return loads, total, nil
}

// TransitionStatus 条件更新货源状态并递增版本号
func (r *GormLoadRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version"] = gorm.Expr("version + 1")
	return compareAndSetStatus(r.db, &models.Load{}, id, from, to, updates)
}

// UpdateFields 更新货源字段（不改变状态）
func (r *GormLoadRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Load{}).Where("id = ?", id).Updates(updates).Error
}
