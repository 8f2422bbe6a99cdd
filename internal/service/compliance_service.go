package service

import (
	"context"
	"sort"
	"time"

	"github.com/freightlane/internal/cache"
	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/metrics"
	"github.com/freightlane/internal/repository"
)

// 阻断原因
const (
	BlockReasonMissing = "missing"
	BlockReasonExpired = "expired"
)

// ComplianceDecision 合规判定结果
type ComplianceDecision struct {
	Permit       bool          `json:"permit"`
	BlockingDocs []BlockingDoc `json:"blocking_docs"`
	ExpiringSoon []BlockingDoc `json:"expiring_soon"`
}

// Err 判定不通过时返回合规阻断错误
func (d *ComplianceDecision) Err() error {
	if d == nil || d.Permit {
		return nil
	}
	return &ComplianceBlockedError{BlockingDocs: d.BlockingDocs}
}

// DocumentHealth 单份证件状态
type DocumentHealth struct {
	DocumentType string     `json:"document_type"`
	DocumentID   uint       `json:"document_id,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
}

// SubjectCompliance 单个主体的合规概览
type SubjectCompliance struct {
	Subject      ComplianceSubject `json:"subject"`
	Expired      []DocumentHealth  `json:"expired"`
	ExpiringSoon []DocumentHealth  `json:"expiring_soon"`
	Healthy      []DocumentHealth  `json:"healthy"`
	Missing      []string          `json:"missing"`
}

// ComplianceRecord 承运方合规概览（派生数据，不落库）
type ComplianceRecord struct {
	CarrierID   uint                `json:"carrier_id"`
	CarrierKind string              `json:"carrier_kind"`
	Subjects    []SubjectCompliance `json:"subjects"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ComplianceService 合规校验服务
type ComplianceService struct {
	docRepo   repository.DocumentRepository
	fleetRepo repository.FleetRepository
	cfg       config.ComplianceConfig
	now       func() time.Time
}

// NewComplianceService 创建合规校验服务
func NewComplianceService(docRepo repository.DocumentRepository, fleetRepo repository.FleetRepository, cfg config.ComplianceConfig) *ComplianceService {
	if len(cfg.Requirements) == 0 {
		cfg.Requirements = config.DefaultComplianceRequirements()
	}
	if cfg.ExpiringSoonDays <= 0 {
		cfg.ExpiringSoonDays = 30
	}
	return &ComplianceService{
		docRepo:   docRepo,
		fleetRepo: fleetRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RequiredTypes 指定承运方类型与主体类型需要的证件
func (s *ComplianceService) RequiredTypes(carrierKind, subjectKind string) []string {
	byKind, ok := s.cfg.Requirements[carrierKind]
	if !ok {
		return nil
	}
	return byKind[subjectKind]
}

// Evaluate 对主体集合逐项判定，每次调用都实时读取证件
func (s *ComplianceService) Evaluate(carrierKind string, subjects []ComplianceSubject, now time.Time) (*ComplianceDecision, error) {
	decision := &ComplianceDecision{Permit: true}
	soonLimit := now.AddDate(0, 0, s.cfg.ExpiringSoonDays)
	for _, subject := range subjects {
		required := s.RequiredTypes(carrierKind, subject.Kind)
		if len(required) == 0 {
			continue
		}
		latest, err := s.docRepo.LatestByOwner(subject.Kind, subject.ID, required)
		if err != nil {
			return nil, err
		}
		for _, docType := range required {
			doc := latest[docType]
			switch {
			case doc == nil:
				decision.BlockingDocs = append(decision.BlockingDocs, BlockingDoc{
					SubjectKind: subject.Kind, SubjectID: subject.ID, DocumentType: docType, Reason: BlockReasonMissing,
				})
			case !doc.SatisfiedAt(now):
				decision.BlockingDocs = append(decision.BlockingDocs, BlockingDoc{
					SubjectKind: subject.Kind, SubjectID: subject.ID, DocumentType: docType, Reason: BlockReasonExpired,
				})
			case doc.ExpiryDate != nil && !doc.ExpiryDate.After(soonLimit):
				decision.ExpiringSoon = append(decision.ExpiringSoon, BlockingDoc{
					SubjectKind: subject.Kind, SubjectID: subject.ID, DocumentType: docType, Reason: "expiring_soon",
				})
			}
		}
	}
	decision.Permit = len(decision.BlockingDocs) == 0
	return decision, nil
}

// CheckBid 报价与中标前的合规校验
func (s *ComplianceService) CheckBid(variant CarrierVariant) error {
	return s.check("bid", variant, variant.BidSubjects())
}

// CheckTrip 申请行程验证码前的合规校验
func (s *ComplianceService) CheckTrip(variant CarrierVariant, subjects []ComplianceSubject) error {
	return s.check("trip", variant, subjects)
}

func (s *ComplianceService) check(operation string, variant CarrierVariant, subjects []ComplianceSubject) error {
	decision, err := s.Evaluate(variant.Kind(), subjects, s.now())
	if err != nil {
		return err
	}
	if decision.Permit {
		metrics.ComplianceDecisionsTotal.WithLabelValues(operation, "permit").Inc()
		return nil
	}
	metrics.ComplianceDecisionsTotal.WithLabelValues(operation, "blocked").Inc()
	blocked := &ComplianceBlockedError{BlockingDocs: decision.BlockingDocs}
	logger.Infow("compliance_blocked",
		"operation", operation,
		"carrier_id", variant.Profile().ID,
		"carrier_kind", variant.Kind(),
		"blocking_docs", blocked.DocumentTypes(),
	)
	return blocked
}

// CarrierComplianceRecord 承运方及其车辆、司机的合规概览，可走缓存
func (s *ComplianceService) CarrierComplianceRecord(ctx context.Context, carrierID uint) (*ComplianceRecord, error) {
	var cached ComplianceRecord
	if hit, err := cache.GetComplianceRecord(ctx, carrierID, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		logger.Warnw("compliance_record_cache_get_failed", "carrier_id", carrierID, "error", err)
	}

	carrier, err := s.fleetRepo.GetCarrierByID(carrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	subjects := []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: carrier.ID}}
	trucks, err := s.fleetRepo.ListTrucksByCarrier(carrier.ID)
	if err != nil {
		return nil, err
	}
	for _, truck := range trucks {
		subjects = append(subjects, ComplianceSubject{Kind: constants.DocumentOwnerTruck, ID: truck.ID})
	}
	drivers, err := s.fleetRepo.ListDriversByCarrier(carrier.ID)
	if err != nil {
		return nil, err
	}
	for _, driver := range drivers {
		subjects = append(subjects, ComplianceSubject{Kind: constants.DocumentOwnerDriver, ID: driver.ID})
	}

	now := s.now()
	record := &ComplianceRecord{CarrierID: carrier.ID, CarrierKind: carrier.Kind, GeneratedAt: now}
	for _, subject := range subjects {
		item, err := s.subjectCompliance(carrier.Kind, subject, now)
		if err != nil {
			return nil, err
		}
		record.Subjects = append(record.Subjects, *item)
	}

	ttl := time.Duration(s.cfg.RecordCacheTTL) * time.Second
	if err := cache.SetComplianceRecord(ctx, carrier.ID, record, ttl); err != nil {
		logger.Warnw("compliance_record_cache_set_failed", "carrier_id", carrier.ID, "error", err)
	}
	return record, nil
}

func (s *ComplianceService) subjectCompliance(carrierKind string, subject ComplianceSubject, now time.Time) (*SubjectCompliance, error) {
	item := &SubjectCompliance{
		Subject:      subject,
		Expired:      []DocumentHealth{},
		ExpiringSoon: []DocumentHealth{},
		Healthy:      []DocumentHealth{},
		Missing:      []string{},
	}
	docs, err := s.docRepo.ListByOwner(subject.Kind, subject.ID)
	if err != nil {
		return nil, err
	}
	soonLimit := now.AddDate(0, 0, s.cfg.ExpiringSoonDays)
	seen := make(map[string]bool)
	for _, doc := range docs {
		if seen[doc.DocumentType] {
			continue
		}
		seen[doc.DocumentType] = true
		health := DocumentHealth{DocumentType: doc.DocumentType, DocumentID: doc.ID, ExpiryDate: doc.ExpiryDate}
		switch {
		case !doc.SatisfiedAt(now):
			item.Expired = append(item.Expired, health)
		case doc.ExpiryDate != nil && !doc.ExpiryDate.After(soonLimit):
			item.ExpiringSoon = append(item.ExpiringSoon, health)
		default:
			item.Healthy = append(item.Healthy, health)
		}
	}
	for _, docType := range s.RequiredTypes(carrierKind, subject.Kind) {
		if !seen[docType] {
			item.Missing = append(item.Missing, docType)
		}
	}
	sort.Strings(item.Missing)
	return item, nil
}

// InvalidateRecord 证件变更后清理概览缓存
func (s *ComplianceService) InvalidateRecord(ctx context.Context, carrierID uint) {
	if err := cache.DelComplianceRecord(ctx, carrierID); err != nil {
		logger.Warnw("compliance_record_cache_del_failed", "carrier_id", carrierID, "error", err)
	}
}
