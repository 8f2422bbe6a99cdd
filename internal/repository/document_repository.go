package repository

import (
	"github.com/freightlane/internal/models"

	"gorm.io/gorm"
)

// DocumentRepository 证件数据访问接口
type DocumentRepository interface {
	Create(doc *models.Document) error
	ListByOwner(ownerType string, ownerID uint) ([]models.Document, error)
	LatestByOwner(ownerType string, ownerID uint, documentTypes []string) (map[string]*models.Document, error)
	WithTx(tx *gorm.DB) *GormDocumentRepository
}

// GormDocumentRepository GORM 实现
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建证件仓库
func NewDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDocumentRepository) WithTx(tx *gorm.DB) *GormDocumentRepository {
	if tx == nil {
		return r
	}
	return &GormDocumentRepository{db: tx}
}

// Create 登记证件
func (r *GormDocumentRepository) Create(doc *models.Document) error {
	return r.db.Create(doc).Error
}

// ListByOwner 主体全部证件（新的在前）
func (r *GormDocumentRepository) ListByOwner(ownerType string, ownerID uint) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at desc, id desc").
		Find(&docs).Error
	return docs, err
}

// LatestByOwner 按证件类型取主体最新一份证件
func (r *GormDocumentRepository) LatestByOwner(ownerType string, ownerID uint, documentTypes []string) (map[string]*models.Document, error) {
	result := make(map[string]*models.Document, len(documentTypes))
	if len(documentTypes) == 0 {
		return result, nil
	}
	var docs []models.Document
	err := r.db.Where("owner_type = ? AND owner_id = ? AND document_type IN ?", ownerType, ownerID, documentTypes).
		Order("created_at desc, id desc").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if _, ok := result[docs[i].DocumentType]; ok {
			continue
		}
		result[docs[i].DocumentType] = &docs[i]
	}
	return result, nil
}
