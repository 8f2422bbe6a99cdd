package repository

import (
	"errors"

	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository 账单数据访问接口
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByIDForUpdate(id uint) (*models.Invoice, error)
	GetByLoadID(loadID uint) (*models.Invoice, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository GORM 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建账单仓库
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

// Create 创建账单
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// GetByID 获取账单
func (r *GormInvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByIDForUpdate 加锁获取账单
func (r *GormInvoiceRepository) GetByIDForUpdate(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByLoadID 根据货源获取账单
func (r *GormInvoiceRepository) GetByLoadID(loadID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("load_id = ?", loadID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// TransitionStatus 条件更新账单状态
func (r *GormInvoiceRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	return compareAndSetStatus(r.db, &models.Invoice{}, id, from, to, updates)
}
