package models

import "time"

// Document 合规证件表（文件本体存放于外部存储，仅记录地址）
type Document struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	OwnerType    string     `gorm:"type:varchar(20);not null;index:idx_document_owner" json:"owner_type"` // 归属主体类型
	OwnerID      uint       `gorm:"not null;index:idx_document_owner" json:"owner_id"`                    // 归属主体ID
	DocumentType string     `gorm:"type:varchar(64);not null;index" json:"document_type"`                 // 证件类型
	DocumentNo   string     `gorm:"type:varchar(128)" json:"document_no,omitempty"`                       // 证件编号
	FileURL      string     `gorm:"type:varchar(1000)" json:"file_url,omitempty"`                         // 文件地址
	ExpiryDate   *time.Time `gorm:"index" json:"expiry_date,omitempty"`                                   // 到期时间（为空表示长期有效）
	UploadedBy   uint       `gorm:"not null" json:"uploaded_by"`                                          // 上传人ID
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
}

// TableName 指定表名
func (Document) TableName() string {
	return "documents"
}

// SatisfiedAt 证件在指定时刻是否有效
func (d *Document) SatisfiedAt(now time.Time) bool {
	if d == nil {
		return false
	}
	return d.ExpiryDate == nil || d.ExpiryDate.After(now)
}
