package models

import "time"

// Shipment 运单表（与货源一一对应）
type Shipment struct {
	ID                uint       `gorm:"primarykey" json:"id"`                              // 主键
	LoadID            uint       `gorm:"uniqueIndex;not null" json:"load_id"`               // 货源ID
	CarrierID         uint       `gorm:"index;not null" json:"carrier_id"`                  // 承运方ID
	DriverID          *uint      `gorm:"index" json:"driver_id,omitempty"`                  // 司机ID
	TruckID           *uint      `gorm:"index" json:"truck_id,omitempty"`                   // 车辆ID
	Status            string     `gorm:"index;not null" json:"status"`                      // 运单状态
	StartOtpRequested bool       `gorm:"not null;default:false" json:"start_otp_requested"` // 已申请发车验证码
	StartOtpVerified  bool       `gorm:"not null;default:false" json:"start_otp_verified"`  // 发车验证码已核验
	EndOtpRequested   bool       `gorm:"not null;default:false" json:"end_otp_requested"`   // 已申请到达验证码
	EndOtpVerified    bool       `gorm:"not null;default:false" json:"end_otp_verified"`    // 到达验证码已核验
	StartedAt         *time.Time `json:"started_at,omitempty"`                              // 发车时间
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`                            // 送达时间
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`                            // 取消时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}
