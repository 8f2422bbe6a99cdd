package models

import "time"

// Bid 承运方报价表
type Bid struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                                          // 主键
	LoadID          uint       `gorm:"index;not null;uniqueIndex:idx_bid_accepted_per_load,where:status = 'accepted'" json:"load_id"` // 货源ID
	CarrierID       uint       `gorm:"index;not null" json:"carrier_id"`                                                              // 承运方ID
	CarrierType     string     `gorm:"type:varchar(20);not null" json:"carrier_type"`                                                 // 承运方类型（solo/enterprise）
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                                                     // 报价金额
	CounterAmount   *Money     `gorm:"type:decimal(20,2)" json:"counter_amount,omitempty"`                                            // 货主还价金额
	Status          string     `gorm:"index;not null" json:"status"`                                                                  // 报价状态
	Notes           string     `gorm:"type:varchar(1000)" json:"notes,omitempty"`                                                     // 备注
	EstimatedPickup *time.Time `json:"estimated_pickup,omitempty"`                                                                    // 预计装货时间
	RespondedAt     *time.Time `json:"responded_at,omitempty"`                                                                        // 处理时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                                       // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                                                    // 更新时间
}

// TableName 指定表名
func (Bid) TableName() string {
	return "bids"
}

// BindingAmount 返回对成交有约束力的金额（有还价时以还价为准）
func (b *Bid) BindingAmount() Money {
	if b.CounterAmount != nil {
		return *b.CounterAmount
	}
	return b.Amount
}
