package models

import (
	"fmt"
	"time"
)

// Load 货源表
type Load struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                   // 主键
	ReferenceNo       string     `gorm:"type:varchar(32);uniqueIndex" json:"reference_no"`       // 货源编号（LD + 8 位序号）
	ShipperID         uint       `gorm:"index;not null" json:"shipper_id"`                       // 货主ID
	PickupLocation    string     `gorm:"type:varchar(255);not null" json:"pickup_location"`      // 装货地
	PickupAt          *time.Time `json:"pickup_at,omitempty"`                                    // 计划装货时间
	DropoffLocation   string     `gorm:"type:varchar(255);not null" json:"dropoff_location"`     // 卸货地
	WeightKg          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"weight_kg"` // 货重（千克）
	TruckType         string     `gorm:"type:varchar(64)" json:"truck_type"`                     // 车型要求
	Description       string     `gorm:"type:text" json:"description"`                           // 货物描述
	Status            string     `gorm:"index;not null" json:"status"`                           // 货源状态
	AssignedCarrierID *uint      `gorm:"index" json:"assigned_carrier_id,omitempty"`             // 中标承运方ID
	AcceptedBidID     *uint      `gorm:"index" json:"accepted_bid_id,omitempty"`                 // 中标报价ID
	AdminFinalPrice   *Money     `gorm:"type:decimal(20,2)" json:"admin_final_price,omitempty"`  // 平台定价
	AgreedAmount      *Money     `gorm:"type:decimal(20,2)" json:"agreed_amount,omitempty"`      // 成交金额
	CancelReason      string     `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`       // 取消原因
	Version           int        `gorm:"not null;default:0" json:"version"`                      // 状态版本号
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (Load) TableName() string {
	return "loads"
}

// FormatLoadReferenceNo 生成货源编号
func FormatLoadReferenceNo(id uint) string {
	return fmt.Sprintf("LD%08d", id)
}
