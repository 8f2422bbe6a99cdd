package repository

import (
	"errors"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// openBidStatuses 仍可被处理的报价状态
var openBidStatuses = []string{constants.BidStatusPending, constants.BidStatusCountered}

// BidRepository 报价数据访问接口
type BidRepository interface {
	Create(bid *models.Bid) error
	GetByID(id uint) (*models.Bid, error)
	GetByIDForUpdate(id uint) (*models.Bid, error)
	List(filter BidListFilter) ([]models.Bid, int64, error)
	FindOpenByLoadAndCarrier(loadID, carrierID uint) (*models.Bid, error)
	CountByLoadAndStatus(loadID uint, status string) (int64, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	CloseOpenByLoad(loadID uint, exceptID uint, to string, now time.Time) ([]models.Bid, error)
	WithTx(tx *gorm.DB) *GormBidRepository
}

// GormBidRepository GORM 实现
type GormBidRepository struct {
	db *gorm.DB
}

// NewBidRepository 创建报价仓库
func NewBidRepository(db *gorm.DB) *GormBidRepository {
	return &GormBidRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBidRepository) WithTx(tx *gorm.DB) *GormBidRepository {
	if tx == nil {
		return r
	}
	return &GormBidRepository{db: tx}
}

// Create 创建报价
func (r *GormBidRepository) Create(bid *models.Bid) error {
	return r.db.Create(bid).Error
}

// GetByID 根据 ID 获取报价
func (r *GormBidRepository) GetByID(id uint) (*models.Bid, error) {
	var bid models.Bid
	if err := r.db.First(&bid, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// GetByIDForUpdate 加锁获取报价
func (r *GormBidRepository) GetByIDForUpdate(id uint) (*models.Bid, error) {
	var bid models.Bid
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bid, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// List 报价列表
func (r *GormBidRepository) List(filter BidListFilter) ([]models.Bid, int64, error) {
	query := r.db.Model(&models.Bid{})
	if filter.LoadID != 0 {
		query = query.Where("load_id = ?", filter.LoadID)
	}
	if filter.CarrierID != 0 {
		query = query.Where("carrier_id = ?", filter.CarrierID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bids []models.Bid
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id asc").Find(&bids).Error; err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

// FindOpenByLoadAndCarrier 查询承运方在货源上的未结报价
func (r *GormBidRepository) FindOpenByLoadAndCarrier(loadID, carrierID uint) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.Where("load_id = ? AND carrier_id = ? AND status IN ?", loadID, carrierID, openBidStatuses).
		Order("id desc").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// CountByLoadAndStatus 统计货源下指定状态的报价数量
func (r *GormBidRepository) CountByLoadAndStatus(loadID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bid{}).Where("load_id = ? AND status = ?", loadID, status).Count(&count).Error
	return count, err
}

// TransitionStatus 条件更新报价状态
func (r *GormBidRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	return compareAndSetStatus(r.db, &models.Bid{}, id, from, to, updates)
}

// CloseOpenByLoad 批量关闭货源下的未结报价，返回被关闭前的报价
func (r *GormBidRepository) CloseOpenByLoad(loadID uint, exceptID uint, to string, now time.Time) ([]models.Bid, error) {
	query := r.db.Where("load_id = ? AND status IN ?", loadID, openBidStatuses)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var bids []models.Bid
	if err := query.Order("id asc").Find(&bids).Error; err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return bids, nil
	}
	ids := make([]uint, 0, len(bids))
	for _, bid := range bids {
		ids = append(ids, bid.ID)
	}
	if err := r.db.Model(&models.Bid{}).
		Where("id IN ? AND status IN ?", ids, openBidStatuses).
		Updates(map[string]interface{}{
			"status":       to,
			"responded_at": now,
		}).Error; err != nil {
		return nil, err
	}
	return bids, nil
}
