package models

import "time"

// Carrier 承运方表
type Carrier struct {
	ID             uint      `gorm:"primarykey" json:"id"`                        // 主键
	Kind           string    `gorm:"type:varchar(20);index;not null" json:"kind"` // 承运方类型（solo/enterprise）
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`      // 名称
	Phone          string    `gorm:"type:varchar(32)" json:"phone,omitempty"`     // 联系电话
	Status         string    `gorm:"index;not null" json:"status"`                // 状态
	DefaultTruckID *uint     `json:"default_truck_id,omitempty"`                  // 个体司机登记车辆
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                  // 更新时间
}

// TableName 指定表名
func (Carrier) TableName() string {
	return "carriers"
}

// Truck 车辆表
type Truck struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	CarrierID   uint      `gorm:"index;not null" json:"carrier_id"`                          // 所属承运方ID
	PlateNumber string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"plate_number"` // 车牌号
	TruckType   string    `gorm:"type:varchar(64)" json:"truck_type"`                        // 车型
	CapacityKg  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"capacity_kg"`  // 载重（千克）
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`                    // 是否可用
	CreatedAt   time.Time `json:"created_at"`                                                // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (Truck) TableName() string {
	return "trucks"
}

// Driver 司机表
type Driver struct {
	ID        uint      `gorm:"primarykey" json:"id"`                    // 主键
	CarrierID uint      `gorm:"index;not null" json:"carrier_id"`        // 所属承运方ID
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`  // 姓名
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"` // 联系电话
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`  // 是否可用
	CreatedAt time.Time `json:"created_at"`                              // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (Driver) TableName() string {
	return "drivers"
}
