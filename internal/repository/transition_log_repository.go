package repository

import (
	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
)

// TransitionLogRepository 状态流转日志数据访问接口
type TransitionLogRepository interface {
	Create(log *models.StatusTransitionLog) error
	List(filter TransitionLogListFilter) ([]models.StatusTransitionLog, int64, error)
	WithTx(tx *gorm.DB) *GormTransitionLogRepository
}

// GormTransitionLogRepository GORM 实现
type GormTransitionLogRepository struct {
	db *gorm.DB
}

// NewTransitionLogRepository 创建状态流转日志仓库
func NewTransitionLogRepository(db *gorm.DB) *GormTransitionLogRepository {
	return &GormTransitionLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransitionLogRepository) WithTx(tx *gorm.DB) *GormTransitionLogRepository {
	if tx == nil {
		return r
	}
	return &GormTransitionLogRepository{db: tx}
}

// Create 写入流转日志
func (r *GormTransitionLogRepository) Create(log *models.StatusTransitionLog) error {
	return r.db.Create(log).Error
}

// List 流转日志列表
func (r *GormTransitionLogRepository) List(filter TransitionLogListFilter) ([]models.StatusTransitionLog, int64, error) {
	query := r.db.Model(&models.StatusTransitionLog{})
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.StatusTransitionLog
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id asc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
