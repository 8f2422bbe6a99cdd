package service

import (
	"errors"
	"strings"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"gorm.io/gorm"
)

// LoadService 货源生命周期服务
type LoadService struct {
	loadRepo     repository.LoadRepository
	bidRepo      repository.BidRepository
	shipmentRepo repository.ShipmentRepository
	invoiceRepo  repository.InvoiceRepository
	logRepo      repository.TransitionLogRepository
	authorizer   Authorizer
	publisher    EventPublisher
	lifecycle    config.LifecycleConfig
}

// NewLoadService 创建货源服务
func NewLoadService(loadRepo repository.LoadRepository, bidRepo repository.BidRepository, shipmentRepo repository.ShipmentRepository, invoiceRepo repository.InvoiceRepository, logRepo repository.TransitionLogRepository, authorizer Authorizer, publisher EventPublisher, lifecycle config.LifecycleConfig) *LoadService {
	return &LoadService{
		loadRepo:     loadRepo,
		bidRepo:      bidRepo,
		shipmentRepo: shipmentRepo,
		invoiceRepo:  invoiceRepo,
		logRepo:      logRepo,
		authorizer:   authorizer,
		publisher:    publisher,
		lifecycle:    lifecycle,
	}
}

// CreateLoadInput 创建货源输入
type CreateLoadInput struct {
	PickupLocation  string
	PickupAt        *time.Time
	DropoffLocation string
	WeightKg        models.Money
	TruckType       string
	Description     string
}

// UpdateLoadStatusInput 货源状态变更输入
type UpdateLoadStatusInput struct {
	Status string
	Price  *models.Money
	Reason string
}

// CreateLoad 货主发布货源
func (s *LoadService) CreateLoad(actor Actor, input CreateLoadInput) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionCreate); err != nil {
		return nil, err
	}
	if !actor.IsShipper() {
		return nil, ErrUnauthorized
	}
	pickup := strings.TrimSpace(input.PickupLocation)
	dropoff := strings.TrimSpace(input.DropoffLocation)
	if pickup == "" || dropoff == "" || !input.WeightKg.IsPositive() {
		return nil, ErrLoadInputInvalid
	}

	load := &models.Load{
		ShipperID:       actor.ID,
		PickupLocation:  pickup,
		PickupAt:        input.PickupAt,
		DropoffLocation: dropoff,
		WeightKg:        input.WeightKg,
		TruckType:       strings.TrimSpace(input.TruckType),
		Description:     strings.TrimSpace(input.Description),
		Status:          constants.LoadStatusPending,
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.loadRepo.WithTx(tx).Create(load); err != nil {
			return err
		}
		return recordTransition(s.logRepo.WithTx(tx), constants.EntityLoad, load.ID, "", load.Status, actor, "")
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("load_created", "load_id", load.ID, "reference_no", load.ReferenceNo, "shipper_id", actor.ID)
	publishAll(s.publisher, []events.Event{loadUpdatedEvent(load)})
	return load, nil
}

// PriceLoad 管理员定价 pending -> priced
func (s *LoadService) PriceLoad(actor Actor, loadID uint, price models.Money) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionPrice); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	if !actor.IsAdmin() {
		return nil, rejectTransition(constants.EntityLoad, ErrUnauthorized)
	}
	if !price.IsPositive() {
		return nil, ErrPriceInvalid
	}
	return s.simpleTransition(actor, loadID, constants.LoadStatusPriced, "", map[string]interface{}{
		"admin_final_price": price,
	}, nil)
}

// PostLoad 管理员发布给承运方 priced -> posted_to_carriers
func (s *LoadService) PostLoad(actor Actor, loadID uint) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionPost); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	return s.simpleTransition(actor, loadID, constants.LoadStatusPostedToCarriers, "", nil, nil)
}

// OpenLoadForBids 管理员开放报价 posted_to_carriers -> open_for_bid
func (s *LoadService) OpenLoadForBids(actor Actor, loadID uint) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionOpen); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	return s.simpleTransition(actor, loadID, constants.LoadStatusOpenForBid, "", nil, []events.Recipient{events.AllCarriers})
}

// CloseLoad 管理员结单 delivered -> closed
func (s *LoadService) CloseLoad(actor Actor, loadID uint) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionClose); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	return s.simpleTransition(actor, loadID, constants.LoadStatusClosed, "", nil, nil)
}

// simpleTransition 仅管理员可执行的单步流转
func (s *LoadService) simpleTransition(actor Actor, loadID uint, target, reason string, updates map[string]interface{}, extra []events.Recipient) (*models.Load, error) {
	if !actor.IsAdmin() {
		return nil, rejectTransition(constants.EntityLoad, ErrUnauthorized)
	}
	var load *models.Load
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		var err error
		load, err = loadRepo.GetByIDForUpdate(loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		return transitionLoad(loadRepo, s.logRepo.WithTx(tx), load, target, actor, reason, updates)
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	load, err = s.loadRepo.GetByID(loadID)
	if err != nil {
		return nil, err
	}
	publishAll(s.publisher, []events.Event{loadUpdatedEvent(load, extra...)})
	return load, nil
}

// CancelLoad 取消货源：货主仅限成交前，管理员可取消已成交未发车的货源
func (s *LoadService) CancelLoad(actor Actor, loadID uint, reason string) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionCancel); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	var (
		load    *models.Load
		carrier *uint
		pending []events.Event
	)
	now := time.Now()
	reason = strings.TrimSpace(reason)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		load, err = loadRepo.GetByIDForUpdate(loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if err := ensureLoadManager(actor, load); err != nil {
			return err
		}
		if !preAwardLoadStatuses[load.Status] && !actor.IsAdmin() && !s.lifecycle.ShipperCancelAfterAward {
			return ErrUnauthorized
		}
		if !loadTransitions.allows(load.Status, constants.LoadStatusCancelled) {
			return ErrInvalidTransition
		}
		carrier = load.AssignedCarrierID
		if err := transitionLoad(loadRepo, logRepo, load, constants.LoadStatusCancelled, actor, reason, map[string]interface{}{
			"assigned_carrier_id": nil,
			"cancel_reason":       reason,
		}); err != nil {
			return err
		}
		if err := cancelShipmentForLoad(s.shipmentRepo.WithTx(tx), logRepo, load.ID, actor, reason, now); err != nil {
			return err
		}
		if err := voidInvoiceForLoad(s.invoiceRepo.WithTx(tx), logRepo, load.ID, actor, now); err != nil {
			return err
		}
		closed, err := closeOpenBids(s.bidRepo.WithTx(tx), logRepo, load.ID, 0, constants.BidStatusExpired, actor, now)
		if err != nil {
			return err
		}
		for i := range closed {
			pending = append(pending, bidUpdatedEvent(&closed[i], load))
		}
		return nil
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	load.AssignedCarrierID = nil
	load.CancelReason = reason
	var extra []events.Recipient
	if carrier != nil {
		extra = append(extra, events.CarrierRecipient(*carrier))
	}
	logger.Infow("load_cancelled", "load_id", load.ID, "actor_role", actor.Role, "actor_id", actor.ID, "reason", reason)
	publishAll(s.publisher, append([]events.Event{loadUpdatedEvent(load, extra...)}, pending...))
	return load, nil
}

// MakeLoadUnavailable 下架货源，仅限成交前
func (s *LoadService) MakeLoadUnavailable(actor Actor, loadID uint, reason string) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionUnavailable); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	var (
		load    *models.Load
		pending []events.Event
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		load, err = loadRepo.GetByIDForUpdate(loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if err := ensureLoadManager(actor, load); err != nil {
			return err
		}
		if err := transitionLoad(loadRepo, logRepo, load, constants.LoadStatusUnavailable, actor, strings.TrimSpace(reason), nil); err != nil {
			return err
		}
		closed, err := closeOpenBids(s.bidRepo.WithTx(tx), logRepo, load.ID, 0, constants.BidStatusExpired, actor, now)
		if err != nil {
			return err
		}
		for i := range closed {
			pending = append(pending, bidUpdatedEvent(&closed[i], load))
		}
		return nil
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	publishAll(s.publisher, append([]events.Event{loadUpdatedEvent(load)}, pending...))
	return load, nil
}

// ResubmitLoad 重新提交下架货源，按配置回到 pending 或 open_for_bid
func (s *LoadService) ResubmitLoad(actor Actor, loadID uint) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionResubmit); err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	var load *models.Load
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		var err error
		load, err = loadRepo.GetByIDForUpdate(loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if err := ensureLoadManager(actor, load); err != nil {
			return err
		}
		target := s.reentryStatus(load)
		var updates map[string]interface{}
		if target == constants.LoadStatusPending {
			updates = map[string]interface{}{"admin_final_price": nil}
		}
		return transitionLoad(loadRepo, s.logRepo.WithTx(tx), load, target, actor, "resubmit", updates)
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityLoad, err)
	}
	load, err = s.loadRepo.GetByID(loadID)
	if err != nil {
		return nil, err
	}
	var extra []events.Recipient
	if load.Status == constants.LoadStatusOpenForBid {
		extra = append(extra, events.AllCarriers)
	}
	publishAll(s.publisher, []events.Event{loadUpdatedEvent(load, extra...)})
	return load, nil
}

// reentryStatus 未定价的货源始终回到 pending 重新审核
func (s *LoadService) reentryStatus(load *models.Load) string {
	if s.lifecycle.UnavailableReentryStatus == constants.LoadStatusOpenForBid && load.AdminFinalPrice != nil {
		return constants.LoadStatusOpenForBid
	}
	return constants.LoadStatusPending
}

// UpdateLoadStatus 按目标状态分派到对应操作
func (s *LoadService) UpdateLoadStatus(actor Actor, loadID uint, input UpdateLoadStatusInput) (*models.Load, error) {
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case constants.LoadStatusPriced:
		if input.Price == nil {
			return nil, ErrPriceInvalid
		}
		return s.PriceLoad(actor, loadID, *input.Price)
	case constants.LoadStatusPostedToCarriers:
		return s.PostLoad(actor, loadID)
	case constants.LoadStatusOpenForBid:
		load, err := s.loadRepo.GetByID(loadID)
		if err != nil {
			return nil, err
		}
		if load != nil && load.Status == constants.LoadStatusUnavailable {
			return s.ResubmitLoad(actor, loadID)
		}
		return s.OpenLoadForBids(actor, loadID)
	case constants.LoadStatusPending:
		return s.ResubmitLoad(actor, loadID)
	case constants.LoadStatusCancelled:
		return s.CancelLoad(actor, loadID, input.Reason)
	case constants.LoadStatusUnavailable:
		return s.MakeLoadUnavailable(actor, loadID, input.Reason)
	case constants.LoadStatusClosed:
		return s.CloseLoad(actor, loadID)
	case "":
		return nil, ErrTargetStatusInvalid
	default:
		// 其余状态只能由报价、账单、行程验证码流程推进
		return nil, rejectTransition(constants.EntityLoad, ErrInvalidTransition)
	}
}

// GetLoad 获取货源详情
func (s *LoadService) GetLoad(actor Actor, loadID uint) (*models.Load, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionRead); err != nil {
		return nil, err
	}
	load, err := s.loadRepo.GetByID(loadID)
	if err != nil {
		return nil, err
	}
	if load == nil || !loadVisibleTo(actor, load) {
		return nil, ErrLoadNotFound
	}
	return load, nil
}

// ListLoads 货源列表，按角色收窄范围
func (s *LoadService) ListLoads(actor Actor, filter repository.LoadListFilter) ([]models.Load, int64, error) {
	if err := authorize(s.authorizer, actor, ObjectLoads, ActionRead); err != nil {
		return nil, 0, err
	}
	switch {
	case actor.IsShipper():
		filter.ShipperID = actor.ID
	case actor.IsCarrier():
		if filter.CarrierID != 0 {
			filter.CarrierID = actor.ID
		} else {
			filter.Statuses = intersectStatuses(filter.Statuses, biddableLoadStatuses)
		}
	}
	return s.loadRepo.List(filter)
}

// ListHistory 实体状态流转记录
func (s *LoadService) ListHistory(actor Actor, filter repository.TransitionLogListFilter) ([]models.StatusTransitionLog, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrUnauthorized
	}
	return s.logRepo.List(filter)
}

// transitionLoad 校验流转表并条件更新货源状态
func transitionLoad(loadRepo repository.LoadRepository, logRepo repository.TransitionLogRepository, load *models.Load, target string, actor Actor, reason string, updates map[string]interface{}) error {
	if !loadTransitions.allows(load.Status, target) {
		return ErrInvalidTransition
	}
	ok, err := loadRepo.TransitionStatus(load.ID, []string{load.Status}, target, updates)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	if err := recordTransition(logRepo, constants.EntityLoad, load.ID, load.Status, target, actor, reason); err != nil {
		return err
	}
	load.Status = target
	load.Version++
	return nil
}

// closeOpenBids 批量关闭未结报价并写入流转日志
func closeOpenBids(bidRepo repository.BidRepository, logRepo repository.TransitionLogRepository, loadID, exceptID uint, target string, actor Actor, now time.Time) ([]models.Bid, error) {
	closed, err := bidRepo.CloseOpenByLoad(loadID, exceptID, target, now)
	if err != nil {
		return nil, err
	}
	for i := range closed {
		if err := recordTransition(logRepo, constants.EntityBid, closed[i].ID, closed[i].Status, target, actor, ""); err != nil {
			return nil, err
		}
		closed[i].Status = target
		closed[i].RespondedAt = &now
	}
	return closed, nil
}

func cancelShipmentForLoad(shipmentRepo repository.ShipmentRepository, logRepo repository.TransitionLogRepository, loadID uint, actor Actor, reason string, now time.Time) error {
	shipment, err := shipmentRepo.GetByLoadID(loadID)
	if err != nil || shipment == nil {
		return err
	}
	if !shipmentTransitions.allows(shipment.Status, constants.ShipmentStatusCancelled) {
		return ErrInvalidTransition
	}
	ok, err := shipmentRepo.TransitionStatus(shipment.ID, []string{shipment.Status}, constants.ShipmentStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	return recordTransition(logRepo, constants.EntityShipment, shipment.ID, shipment.Status, constants.ShipmentStatusCancelled, actor, reason)
}

func voidInvoiceForLoad(invoiceRepo repository.InvoiceRepository, logRepo repository.TransitionLogRepository, loadID uint, actor Actor, now time.Time) error {
	invoice, err := invoiceRepo.GetByLoadID(loadID)
	if err != nil || invoice == nil {
		return err
	}
	if !invoiceTransitions.allows(invoice.Status, constants.InvoiceStatusVoid) {
		return nil
	}
	if _, err := invoiceRepo.TransitionStatus(invoice.ID, []string{invoice.Status}, constants.InvoiceStatusVoid, map[string]interface{}{
		"updated_at": now,
	}); err != nil {
		return err
	}
	return recordTransition(logRepo, constants.EntityInvoice, invoice.ID, invoice.Status, constants.InvoiceStatusVoid, actor, "load cancelled")
}

// ensureLoadManager 货主只能操作自己的货源，管理员不受限
func ensureLoadManager(actor Actor, load *models.Load) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsShipper() && load.ShipperID == actor.ID {
		return nil
	}
	return ErrUnauthorized
}

func loadVisibleTo(actor Actor, load *models.Load) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsShipper():
		return load.ShipperID == actor.ID
	case actor.IsCarrier():
		if load.AssignedCarrierID != nil && *load.AssignedCarrierID == actor.ID {
			return true
		}
		return load.Status == constants.LoadStatusOpenForBid || load.Status == constants.LoadStatusCounterReceived
	default:
		return false
	}
}

func intersectStatuses(requested, allowed []string) []string {
	if len(requested) == 0 {
		return allowed
	}
	result := make([]string, 0, len(requested))
	for _, status := range requested {
		for _, item := range allowed {
			if status == item {
				result = append(result, status)
			}
		}
	}
	if len(result) == 0 {
		// 无交集时返回不可能命中的状态，避免放宽过滤
		return []string{"-"}
	}
	return result
}

// isRaceLost 是否为并发竞争失败
func isRaceLost(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrAlreadyAwarded)
}
