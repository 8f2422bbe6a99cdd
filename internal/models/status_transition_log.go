package models

import "time"

// StatusTransitionLog 状态流转审计表
type StatusTransitionLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                                     // 主键
	EntityType string    `gorm:"type:varchar(32);not null;index:idx_transition_entity" json:"entity_type"` // 实体类型
	EntityID   uint      `gorm:"not null;index:idx_transition_entity" json:"entity_id"`                    // 实体ID
	FromStatus string    `gorm:"type:varchar(64)" json:"from_status"`                                      // 原状态
	ToStatus   string    `gorm:"type:varchar(64);not null" json:"to_status"`                               // 新状态
	ActorRole  string    `gorm:"type:varchar(20);not null" json:"actor_role"`                              // 操作人角色
	ActorID    uint      `gorm:"not null" json:"actor_id"`                                                 // 操作人ID
	Reason     string    `gorm:"type:varchar(1000)" json:"reason,omitempty"`                               // 原因
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                                  // 创建时间
}

// TableName 指定表名
func (StatusTransitionLog) TableName() string {
	return "status_transition_logs"
}
