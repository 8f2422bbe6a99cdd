package service

import (
	"strings"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"gorm.io/gorm"
)

// BidService 报价与成交服务
type BidService struct {
	loadRepo     repository.LoadRepository
	bidRepo      repository.BidRepository
	shipmentRepo repository.ShipmentRepository
	fleetRepo    repository.FleetRepository
	logRepo      repository.TransitionLogRepository
	compliance   *ComplianceService
	authorizer   Authorizer
	publisher    EventPublisher
}

// NewBidService 创建报价服务
func NewBidService(loadRepo repository.LoadRepository, bidRepo repository.BidRepository, shipmentRepo repository.ShipmentRepository, fleetRepo repository.FleetRepository, logRepo repository.TransitionLogRepository, compliance *ComplianceService, authorizer Authorizer, publisher EventPublisher) *BidService {
	return &BidService{
		loadRepo:     loadRepo,
		bidRepo:      bidRepo,
		shipmentRepo: shipmentRepo,
		fleetRepo:    fleetRepo,
		logRepo:      logRepo,
		compliance:   compliance,
		authorizer:   authorizer,
		publisher:    publisher,
	}
}

// CreateBidInput 提交报价输入
type CreateBidInput struct {
	LoadID          uint
	Amount          models.Money
	Notes           string
	EstimatedPickup *time.Time
}

// AwardResult 成交结果
type AwardResult struct {
	Load     *models.Load     `json:"load"`
	Bid      *models.Bid      `json:"bid"`
	Shipment *models.Shipment `json:"shipment"`
}

// CreateBid 承运方对开放报价的货源出价
func (s *BidService) CreateBid(actor Actor, input CreateBidInput) (*models.Bid, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionCreate); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	if !actor.IsCarrier() {
		return nil, rejectTransition(constants.EntityBid, ErrUnauthorized)
	}
	if !input.Amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	variant, err := loadCarrierVariant(s.fleetRepo, actor.ID)
	if err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}

	var (
		bid  *models.Bid
		load *models.Load
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		bidRepo := s.bidRepo.WithTx(tx)
		var err error
		load, err = s.loadRepo.WithTx(tx).GetByIDForUpdate(input.LoadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if load.Status != constants.LoadStatusOpenForBid {
			return ErrInvalidTransition
		}
		if err := s.compliance.CheckBid(variant); err != nil {
			return err
		}
		existing, err := bidRepo.FindOpenByLoadAndCarrier(load.ID, actor.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicatePending
		}
		bid = &models.Bid{
			LoadID:          load.ID,
			CarrierID:       actor.ID,
			CarrierType:     variant.Kind(),
			Amount:          input.Amount,
			Status:          constants.BidStatusPending,
			Notes:           strings.TrimSpace(input.Notes),
			EstimatedPickup: input.EstimatedPickup,
		}
		if err := bidRepo.Create(bid); err != nil {
			return err
		}
		return recordTransition(s.logRepo.WithTx(tx), constants.EntityBid, bid.ID, "", bid.Status, actor, "")
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	logger.Infow("bid_created", "bid_id", bid.ID, "load_id", bid.LoadID, "carrier_id", bid.CarrierID, "amount", bid.Amount.String())
	publishAll(s.publisher, []events.Event{bidUpdatedEvent(bid, load)})
	return bid, nil
}

// AcceptBid 货主或管理员接受报价并成交
func (s *BidService) AcceptBid(actor Actor, bidID uint) (*AwardResult, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionAccept); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	return s.award(actor, bidID, constants.BidStatusPending)
}

// AcceptCounter 承运方接受还价并成交，以还价金额为准
func (s *BidService) AcceptCounter(actor Actor, bidID uint) (*AwardResult, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionRespond); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	return s.award(actor, bidID, constants.BidStatusCountered)
}

// award 成交：报价接受、同货源其他报价拒绝、货源成交、生成运单，同一事务完成
func (s *BidService) award(actor Actor, bidID uint, expectedBidStatus string) (*AwardResult, error) {
	var (
		result  AwardResult
		pending []events.Event
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		bidRepo := s.bidRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)

		bid, err := bidRepo.GetByID(bidID)
		if err != nil {
			return err
		}
		if bid == nil {
			return ErrBidNotFound
		}
		load, err := loadRepo.GetByIDForUpdate(bid.LoadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if err := ensureBidActor(actor, bid, load, expectedBidStatus == constants.BidStatusCountered); err != nil {
			return err
		}
		if load.AssignedCarrierID != nil || load.Status == constants.LoadStatusAwarded {
			return ErrAlreadyAwarded
		}
		if load.Status != constants.LoadStatusOpenForBid && load.Status != constants.LoadStatusCounterReceived {
			return ErrInvalidTransition
		}
		if bid.Status != expectedBidStatus {
			return bidStateError(bid)
		}

		carrier, err := s.fleetRepo.WithTx(tx).GetCarrierByID(bid.CarrierID)
		if err != nil {
			return err
		}
		variant, err := NewCarrierVariant(carrier)
		if err != nil {
			return err
		}
		if carrier.Status == constants.CarrierStatusSuspended {
			return ErrCarrierSuspended
		}
		if err := s.compliance.CheckBid(variant); err != nil {
			return err
		}

		agreed := bid.BindingAmount()
		fromLoad := load.Status
		ok, err := loadRepo.TransitionStatus(load.ID, biddableLoadStatuses, constants.LoadStatusAwarded, map[string]interface{}{
			"assigned_carrier_id": bid.CarrierID,
			"accepted_bid_id":     bid.ID,
			"agreed_amount":       agreed,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyAwarded
		}
		ok, err = bidRepo.TransitionStatus(bid.ID, []string{expectedBidStatus}, constants.BidStatusAccepted, map[string]interface{}{
			"responded_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		if err := recordTransition(logRepo, constants.EntityLoad, load.ID, fromLoad, constants.LoadStatusAwarded, actor, ""); err != nil {
			return err
		}
		if err := recordTransition(logRepo, constants.EntityBid, bid.ID, expectedBidStatus, constants.BidStatusAccepted, actor, ""); err != nil {
			return err
		}

		closed, err := closeOpenBids(bidRepo, logRepo, load.ID, bid.ID, constants.BidStatusRejected, actor, now)
		if err != nil {
			return err
		}

		driverID, truckID := variant.InitialResources()
		shipment := &models.Shipment{
			LoadID:    load.ID,
			CarrierID: bid.CarrierID,
			DriverID:  driverID,
			TruckID:   truckID,
			Status:    constants.ShipmentStatusAssigned,
		}
		if err := s.shipmentRepo.WithTx(tx).Create(shipment); err != nil {
			return err
		}
		if err := recordTransition(logRepo, constants.EntityShipment, shipment.ID, "", shipment.Status, actor, ""); err != nil {
			return err
		}

		carrierID := bid.CarrierID
		bidRef := bid.ID
		load.Status = constants.LoadStatusAwarded
		load.AssignedCarrierID = &carrierID
		load.AcceptedBidID = &bidRef
		load.AgreedAmount = agreed.Ptr()
		load.Version++
		bid.Status = constants.BidStatusAccepted
		bid.RespondedAt = &now

		pending = append(pending, loadUpdatedEvent(load), bidUpdatedEvent(bid, load))
		for i := range closed {
			pending = append(pending, bidUpdatedEvent(&closed[i], load))
		}
		result = AwardResult{Load: load, Bid: bid, Shipment: shipment}
		return nil
	})
	if err != nil {
		if isRaceLost(err) {
			logger.Infow("bid_award_race_lost", "bid_id", bidID, "actor_role", actor.Role, "actor_id", actor.ID, "error", err)
		}
		return nil, rejectTransition(constants.EntityBid, err)
	}
	logger.Infow("load_awarded",
		"load_id", result.Load.ID,
		"bid_id", result.Bid.ID,
		"carrier_id", result.Bid.CarrierID,
		"agreed_amount", result.Load.AgreedAmount.String(),
		"shipment_id", result.Shipment.ID,
	)
	publishAll(s.publisher, pending)
	return &result, nil
}

// CounterBid 货主或管理员对报价还价
func (s *BidService) CounterBid(actor Actor, bidID uint, counterAmount models.Money, notes string) (*models.Bid, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionCounter); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	if !counterAmount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	var (
		bid     *models.Bid
		load    *models.Load
		pending []events.Event
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		bidRepo := s.bidRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		bid, load, err = s.lockBidAndLoad(loadRepo, bidRepo, bidID)
		if err != nil {
			return err
		}
		if err := ensureBidActor(actor, bid, load, false); err != nil {
			return err
		}
		if bid.Status != constants.BidStatusPending {
			return bidStateError(bid)
		}
		if load.Status != constants.LoadStatusOpenForBid && load.Status != constants.LoadStatusCounterReceived {
			return ErrInvalidTransition
		}
		if load.Status == constants.LoadStatusOpenForBid {
			if err := transitionLoad(loadRepo, logRepo, load, constants.LoadStatusCounterReceived, actor, "", nil); err != nil {
				return err
			}
			pending = append(pending, loadUpdatedEvent(load))
		}
		notes = strings.TrimSpace(notes)
		if err := s.transitionBid(bidRepo, logRepo, bid, constants.BidStatusCountered, actor, notes, map[string]interface{}{
			"counter_amount": counterAmount,
			"notes":          notes,
			"responded_at":   now,
		}); err != nil {
			return err
		}
		bid.CounterAmount = counterAmount.Ptr()
		bid.Notes = notes
		bid.RespondedAt = &now
		return nil
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	pending = append(pending, bidUpdatedEvent(bid, load))
	publishAll(s.publisher, pending)
	return bid, nil
}

// RejectBid 货主或管理员拒绝报价
func (s *BidService) RejectBid(actor Actor, bidID uint, notes string) (*models.Bid, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionReject); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	return s.closeBid(actor, bidID, false, []string{constants.BidStatusPending, constants.BidStatusCountered}, constants.BidStatusRejected, notes)
}

// RejectCounter 承运方拒绝还价
func (s *BidService) RejectCounter(actor Actor, bidID uint) (*models.Bid, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionRespond); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	return s.closeBid(actor, bidID, true, []string{constants.BidStatusCountered}, constants.BidStatusRejected, "")
}

// WithdrawBid 承运方撤回待处理报价
func (s *BidService) WithdrawBid(actor Actor, bidID uint) (*models.Bid, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionWithdraw); err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	return s.closeBid(actor, bidID, true, []string{constants.BidStatusPending}, constants.BidStatusExpired, "withdrawn")
}

func (s *BidService) closeBid(actor Actor, bidID uint, carrierSide bool, from []string, target, notes string) (*models.Bid, error) {
	var (
		bid     *models.Bid
		load    *models.Load
		pending []events.Event
	)
	now := time.Now()
	notes = strings.TrimSpace(notes)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		bidRepo := s.bidRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		bid, load, err = s.lockBidAndLoad(loadRepo, bidRepo, bidID)
		if err != nil {
			return err
		}
		if err := ensureBidActor(actor, bid, load, carrierSide); err != nil {
			return err
		}
		if !containsStatus(from, bid.Status) {
			return bidStateError(bid)
		}
		updates := map[string]interface{}{"responded_at": now}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := s.transitionBid(bidRepo, logRepo, bid, target, actor, notes, updates); err != nil {
			return err
		}
		bid.RespondedAt = &now
		if notes != "" {
			bid.Notes = notes
		}
		if load.Status != constants.LoadStatusCounterReceived {
			return nil
		}
		remaining, err := bidRepo.CountByLoadAndStatus(load.ID, constants.BidStatusCountered)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		if err := transitionLoad(loadRepo, logRepo, load, constants.LoadStatusOpenForBid, actor, "no countered bids", nil); err != nil {
			return err
		}
		pending = append(pending, loadUpdatedEvent(load, events.AllCarriers))
		return nil
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityBid, err)
	}
	pending = append([]events.Event{bidUpdatedEvent(bid, load)}, pending...)
	publishAll(s.publisher, pending)
	return bid, nil
}

// ListBids 报价列表：承运方只能看到自己的报价，货主只能看到自己货源的报价
func (s *BidService) ListBids(actor Actor, filter repository.BidListFilter) ([]models.Bid, int64, error) {
	if err := authorize(s.authorizer, actor, ObjectBids, ActionRead); err != nil {
		return nil, 0, err
	}
	switch {
	case actor.IsCarrier():
		filter.CarrierID = actor.ID
	case actor.IsShipper():
		if filter.LoadID == 0 {
			return nil, 0, ErrLoadNotFound
		}
		load, err := s.loadRepo.GetByID(filter.LoadID)
		if err != nil {
			return nil, 0, err
		}
		if load == nil || load.ShipperID != actor.ID {
			return nil, 0, ErrLoadNotFound
		}
	}
	return s.bidRepo.List(filter)
}

func (s *BidService) lockBidAndLoad(loadRepo repository.LoadRepository, bidRepo repository.BidRepository, bidID uint) (*models.Bid, *models.Load, error) {
	bid, err := bidRepo.GetByID(bidID)
	if err != nil {
		return nil, nil, err
	}
	if bid == nil {
		return nil, nil, ErrBidNotFound
	}
	load, err := loadRepo.GetByIDForUpdate(bid.LoadID)
	if err != nil {
		return nil, nil, err
	}
	if load == nil {
		return nil, nil, ErrLoadNotFound
	}
	bid, err = bidRepo.GetByIDForUpdate(bidID)
	if err != nil {
		return nil, nil, err
	}
	if bid == nil {
		return nil, nil, ErrBidNotFound
	}
	return bid, load, nil
}

// ensureBidActor 承运方侧操作只能由报价承运方执行，其余由货源货主或管理员执行
func ensureBidActor(actor Actor, bid *models.Bid, load *models.Load, carrierSide bool) error {
	if carrierSide {
		if !actor.IsCarrier() || bid.CarrierID != actor.ID {
			return ErrUnauthorized
		}
		return nil
	}
	if actor.IsCarrier() {
		return ErrUnauthorized
	}
	return ensureLoadManager(actor, load)
}

func (s *BidService) transitionBid(bidRepo repository.BidRepository, logRepo repository.TransitionLogRepository, bid *models.Bid, target string, actor Actor, reason string, updates map[string]interface{}) error {
	if !bidTransitions.allows(bid.Status, target) {
		return bidStateError(bid)
	}
	ok, err := bidRepo.TransitionStatus(bid.ID, []string{bid.Status}, target, updates)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	if err := recordTransition(logRepo, constants.EntityBid, bid.ID, bid.Status, target, actor, reason); err != nil {
		return err
	}
	bid.Status = target
	return nil
}

// bidStateError 已结束的报价返回 AlreadyProcessed，其余为非法流转
func bidStateError(bid *models.Bid) error {
	switch bid.Status {
	case constants.BidStatusAccepted, constants.BidStatusRejected, constants.BidStatusExpired:
		return ErrAlreadyProcessed
	default:
		return ErrInvalidTransition
	}
}

func containsStatus(statuses []string, status string) bool {
	for _, item := range statuses {
		if item == status {
			return true
		}
	}
	return false
}

// loadCarrierVariant 加载承运方并构造类型变体，停用承运方不可操作
func loadCarrierVariant(fleetRepo repository.FleetRepository, carrierID uint) (CarrierVariant, error) {
	carrier, err := fleetRepo.GetCarrierByID(carrierID)
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	if carrier.Status == constants.CarrierStatusSuspended {
		return nil, ErrCarrierSuspended
	}
	return NewCarrierVariant(carrier)
}
