package models

import "time"

// OtpRequest 行程验证码申请表
type OtpRequest struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                                                           // 主键
	ShipmentID  uint       `gorm:"index;not null;uniqueIndex:idx_otp_request_pending,where:status = 'pending'" json:"shipment_id"` // 运单ID
	RequestType string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_otp_request_pending" json:"request_type"`              // 申请类型
	Status      string     `gorm:"index;not null" json:"status"`                                                                   // 申请状态
	RequestedBy uint       `gorm:"not null" json:"requested_by"`                                                                   // 申请人（承运方ID）
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`                                                                   // 申请时间
	ProcessedAt *time.Time `json:"processed_at,omitempty"`                                                                         // 处理时间
	ApprovedBy  *uint      `json:"approved_by,omitempty"`                                                                          // 处理管理员ID
	Notes       string     `gorm:"type:varchar(1000)" json:"notes,omitempty"`                                                      // 备注
	CreatedAt   time.Time  `json:"created_at"`                                                                                     // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                                                                     // 更新时间
}

// TableName 指定表名
func (OtpRequest) TableName() string {
	return "otp_requests"
}

// Otp 一次性验证码表（仅保存哈希）
type Otp struct {
	ID            uint       `gorm:"primarykey" json:"id"`                    // 主键
	OtpRequestID  uint       `gorm:"index;not null" json:"otp_request_id"`    // 申请ID
	CodeHash      string     `gorm:"type:varchar(100);not null" json:"-"`     // 验证码哈希
	ValidUntil    time.Time  `gorm:"index;not null" json:"valid_until"`       // 有效期截止
	ConsumedAt    *time.Time `json:"consumed_at,omitempty"`                   // 使用时间
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty"`                // 作废时间
	AttemptCount  int        `gorm:"not null;default:0" json:"attempt_count"` // 错误尝试次数
	IssuedBy      uint       `gorm:"not null" json:"issued_by"`               // 签发管理员ID
	CreatedAt     time.Time  `json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (Otp) TableName() string {
	return "otps"
}
