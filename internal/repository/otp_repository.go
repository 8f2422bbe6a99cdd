package repository

import (
	"errors"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OtpRepository 行程验证码数据访问接口
type OtpRepository interface {
	CreateRequest(request *models.OtpRequest) error
	GetRequestByID(id uint) (*models.OtpRequest, error)
	GetRequestByIDForUpdate(id uint) (*models.OtpRequest, error)
	FindPendingRequest(shipmentID uint, requestType string) (*models.OtpRequest, error)
	FindLatestApprovedRequest(shipmentID uint, requestType string) (*models.OtpRequest, error)
	ListRequests(filter OtpRequestListFilter) ([]models.OtpRequest, int64, error)
	TransitionRequest(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	CreateOtp(otp *models.Otp) error
	GetActiveOtpByRequest(requestID uint) (*models.Otp, error)
	GetLatestOtpByRequest(requestID uint) (*models.Otp, error)
	InvalidateActiveOtps(shipmentID uint, requestType string, now time.Time) (int64, error)
	IncrementAttempt(otpID uint, maxAttempts int) (bool, error)
	Consume(otpID uint, now time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormOtpRepository
}

// GormOtpRepository GORM 实现
type GormOtpRepository struct {
	db *gorm.DB
}

// NewOtpRepository 创建验证码仓库
func NewOtpRepository(db *gorm.DB) *GormOtpRepository {
	return &GormOtpRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOtpRepository) WithTx(tx *gorm.DB) *GormOtpRepository {
	if tx == nil {
		return r
	}
	return &GormOtpRepository{db: tx}
}

// CreateRequest 创建验证码申请
func (r *GormOtpRepository) CreateRequest(request *models.OtpRequest) error {
	return r.db.Create(request).Error
}

// GetRequestByID 根据 ID 获取申请
func (r *GormOtpRepository) GetRequestByID(id uint) (*models.OtpRequest, error) {
	var request models.OtpRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetRequestByIDForUpdate 加锁获取申请
func (r *GormOtpRepository) GetRequestByIDForUpdate(id uint) (*models.OtpRequest, error) {
	var request models.OtpRequest
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindPendingRequest 查询运单指定类型的待处理申请
func (r *GormOtpRepository) FindPendingRequest(shipmentID uint, requestType string) (*models.OtpRequest, error) {
	return r.findRequestByStatus(shipmentID, requestType, constants.OtpRequestStatusPending)
}

// FindLatestApprovedRequest 查询运单指定类型最近一次已批准的申请
func (r *GormOtpRepository) FindLatestApprovedRequest(shipmentID uint, requestType string) (*models.OtpRequest, error) {
	return r.findRequestByStatus(shipmentID, requestType, constants.OtpRequestStatusApproved)
}

func (r *GormOtpRepository) findRequestByStatus(shipmentID uint, requestType, status string) (*models.OtpRequest, error) {
	var request models.OtpRequest
	err := r.db.Where("shipment_id = ? AND request_type = ? AND status = ?", shipmentID, requestType, status).
		Order("id desc").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// ListRequests 申请列表
func (r *GormOtpRepository) ListRequests(filter OtpRequestListFilter) ([]models.OtpRequest, int64, error) {
	query := r.db.Model(&models.OtpRequest{})
	if filter.ShipmentID != 0 {
		query = query.Where("shipment_id = ?", filter.ShipmentID)
	}
	if filter.RequestType != "" {
		query = query.Where("request_type = ?", filter.RequestType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.OtpRequest
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("requested_at asc, id asc").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// TransitionRequest 条件更新申请状态
func (r *GormOtpRepository) TransitionRequest(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	return compareAndSetStatus(r.db, &models.OtpRequest{}, id, from, to, updates)
}

// CreateOtp 保存验证码
func (r *GormOtpRepository) CreateOtp(otp *models.Otp) error {
	return r.db.Create(otp).Error
}

// GetActiveOtpByRequest 获取申请下未作废的验证码
func (r *GormOtpRepository) GetActiveOtpByRequest(requestID uint) (*models.Otp, error) {
	var otp models.Otp
	err := r.db.Where("otp_request_id = ? AND invalidated_at IS NULL", requestID).
		Order("id desc").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

// GetLatestOtpByRequest 获取申请下最近签发的验证码（含已作废）
func (r *GormOtpRepository) GetLatestOtpByRequest(requestID uint) (*models.Otp, error) {
	var otp models.Otp
	if err := r.db.Where("otp_request_id = ?", requestID).Order("id desc").First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

// InvalidateActiveOtps 作废运单指定类型下全部未使用的验证码
func (r *GormOtpRepository) InvalidateActiveOtps(shipmentID uint, requestType string, now time.Time) (int64, error) {
	requestIDs := r.db.Model(&models.OtpRequest{}).
		Select("id").
		Where("shipment_id = ? AND request_type = ?", shipmentID, requestType)
	result := r.db.Model(&models.Otp{}).
		Where("otp_request_id IN (?) AND invalidated_at IS NULL AND consumed_at IS NULL", requestIDs).
		Update("invalidated_at", now)
	return result.RowsAffected, result.Error
}

// IncrementAttempt 错误尝试次数加一，已达上限时不更新并返回 false
func (r *GormOtpRepository) IncrementAttempt(otpID uint, maxAttempts int) (bool, error) {
	result := r.db.Model(&models.Otp{}).
		Where("id = ? AND attempt_count < ?", otpID, maxAttempts).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Consume 标记验证码已使用，仅未使用且未作废时命中
func (r *GormOtpRepository) Consume(otpID uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.Otp{}).
		Where("id = ? AND consumed_at IS NULL AND invalidated_at IS NULL", otpID).
		Update("consumed_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
