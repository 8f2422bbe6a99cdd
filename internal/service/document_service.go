package service

import (
	"context"
	"strings"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
)

// DocumentService 合规证件登记服务
type DocumentService struct {
	docRepo    repository.DocumentRepository
	fleetRepo  repository.FleetRepository
	compliance *ComplianceService
	authorizer Authorizer
	publisher  EventPublisher
}

// NewDocumentService 创建证件服务
func NewDocumentService(docRepo repository.DocumentRepository, fleetRepo repository.FleetRepository, compliance *ComplianceService, authorizer Authorizer, publisher EventPublisher) *DocumentService {
	return &DocumentService{
		docRepo:    docRepo,
		fleetRepo:  fleetRepo,
		compliance: compliance,
		authorizer: authorizer,
		publisher:  publisher,
	}
}

// RegisterDocumentInput 登记证件输入（文件已上传至外部存储）
type RegisterDocumentInput struct {
	OwnerType    string
	OwnerID      uint
	DocumentType string
	DocumentNo   string
	FileURL      string
	ExpiryDate   *time.Time
}

// RegisterDocument 登记证件，旧记录保留，判定以最新一份为准
func (s *DocumentService) RegisterDocument(ctx context.Context, actor Actor, input RegisterDocumentInput) (*models.Document, error) {
	if err := authorize(s.authorizer, actor, ObjectDocuments, ActionCreate); err != nil {
		return nil, err
	}
	ownerType := strings.ToLower(strings.TrimSpace(input.OwnerType))
	docType := strings.ToLower(strings.TrimSpace(input.DocumentType))
	if input.OwnerID == 0 || docType == "" {
		return nil, ErrDocumentInputInvalid
	}
	carrierID, err := s.resolveOwnerCarrier(ownerType, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if actor.IsCarrier() && carrierID != actor.ID {
		return nil, ErrUnauthorized
	}
	if !actor.IsCarrier() && !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	doc := &models.Document{
		OwnerType:    ownerType,
		OwnerID:      input.OwnerID,
		DocumentType: docType,
		DocumentNo:   strings.TrimSpace(input.DocumentNo),
		FileURL:      strings.TrimSpace(input.FileURL),
		ExpiryDate:   input.ExpiryDate,
		UploadedBy:   actor.ID,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}
	s.compliance.InvalidateRecord(ctx, carrierID)
	logger.Infow("document_uploaded",
		"document_id", doc.ID,
		"owner_type", doc.OwnerType,
		"owner_id", doc.OwnerID,
		"document_type", doc.DocumentType,
		"carrier_id", carrierID,
	)
	publishAll(s.publisher, []events.Event{
		events.New(constants.EventDocumentUploaded, constants.EntityDocument, doc.ID, "uploaded", map[string]interface{}{
			"owner_type":    doc.OwnerType,
			"owner_id":      doc.OwnerID,
			"document_type": doc.DocumentType,
			"carrier_id":    carrierID,
		}, events.AllAdmins, events.CarrierRecipient(carrierID)),
	})
	return doc, nil
}

// ListDocuments 主体证件列表（最新在前）
func (s *DocumentService) ListDocuments(actor Actor, ownerType string, ownerID uint) ([]models.Document, error) {
	if err := authorize(s.authorizer, actor, ObjectDocuments, ActionRead); err != nil {
		return nil, err
	}
	ownerType = strings.ToLower(strings.TrimSpace(ownerType))
	carrierID, err := s.resolveOwnerCarrier(ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.IsCarrier() && carrierID == actor.ID) {
		return nil, ErrUnauthorized
	}
	return s.docRepo.ListByOwner(ownerType, ownerID)
}

// ComplianceRecord 承运方合规概览
func (s *DocumentService) ComplianceRecord(ctx context.Context, actor Actor, carrierID uint) (*ComplianceRecord, error) {
	if err := authorize(s.authorizer, actor, ObjectDocuments, ActionRead); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.IsCarrier() && carrierID == actor.ID) {
		return nil, ErrUnauthorized
	}
	return s.compliance.CarrierComplianceRecord(ctx, carrierID)
}

// resolveOwnerCarrier 返回证件主体所属承运方
func (s *DocumentService) resolveOwnerCarrier(ownerType string, ownerID uint) (uint, error) {
	switch ownerType {
	case constants.DocumentOwnerCarrier:
		carrier, err := s.fleetRepo.GetCarrierByID(ownerID)
		if err != nil {
			return 0, err
		}
		if carrier == nil {
			return 0, ErrCarrierNotFound
		}
		return carrier.ID, nil
	case constants.DocumentOwnerTruck:
		truck, err := s.fleetRepo.GetTruckByID(ownerID)
		if err != nil {
			return 0, err
		}
		if truck == nil {
			return 0, ErrTruckNotFound
		}
		return truck.CarrierID, nil
	case constants.DocumentOwnerDriver:
		driver, err := s.fleetRepo.GetDriverByID(ownerID)
		if err != nil {
			return 0, err
		}
		if driver == nil {
			return 0, ErrDriverNotFound
		}
		return driver.CarrierID, nil
	default:
		return 0, ErrDocumentInputInvalid
	}
}
