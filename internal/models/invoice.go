package models

import "time"

// Invoice 运费账单表
type Invoice struct {
	ID             uint       `gorm:"primarykey" json:"id"`                           // 主键
	InvoiceNo      string     `gorm:"type:varchar(32);uniqueIndex" json:"invoice_no"` // 账单编号
	LoadID         uint       `gorm:"uniqueIndex;not null" json:"load_id"`            // 货源ID
	ShipperID      uint       `gorm:"index;not null" json:"shipper_id"`               // 货主ID
	CarrierID      uint       `gorm:"index;not null" json:"carrier_id"`               // 承运方ID
	Amount         Money      `gorm:"type:decimal(20,2);not null" json:"amount"`      // 账单金额
	Status         string     `gorm:"index;not null" json:"status"`                   // 账单状态
	SentAt         *time.Time `json:"sent_at,omitempty"`                              // 发送时间
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`                      // 确认时间
	PaidAt         *time.Time `json:"paid_at,omitempty"`                              // 支付时间
	CreatedBy      uint       `gorm:"not null" json:"created_by"`                     // 创建管理员ID
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}

// FormatInvoiceNo 生成账单编号
func FormatInvoiceNo(loadID uint) string {
	return "INV" + FormatLoadReferenceNo(loadID)[2:]
}
