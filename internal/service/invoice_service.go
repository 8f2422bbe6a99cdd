package service

import (
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"gorm.io/gorm"
)

// InvoiceService 运费账单服务
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	loadRepo    repository.LoadRepository
	logRepo     repository.TransitionLogRepository
	authorizer  Authorizer
	publisher   EventPublisher
}

// NewInvoiceService 创建账单服务
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, loadRepo repository.LoadRepository, logRepo repository.TransitionLogRepository, authorizer Authorizer, publisher EventPublisher) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		loadRepo:    loadRepo,
		logRepo:     logRepo,
		authorizer:  authorizer,
		publisher:   publisher,
	}
}

// invoiceStep 账单与货源同步推进的一步
type invoiceStep struct {
	action      string
	invoiceFrom string
	invoiceTo   string
	loadTo      string
	timeColumn  string
}

var (
	stepSend = invoiceStep{
		action:      ActionSend,
		invoiceFrom: constants.InvoiceStatusCreated,
		invoiceTo:   constants.InvoiceStatusSent,
		loadTo:      constants.LoadStatusInvoiceSent,
		timeColumn:  "sent_at",
	}
	stepAcknowledge = invoiceStep{
		action:      ActionAcknowledge,
		invoiceFrom: constants.InvoiceStatusSent,
		invoiceTo:   constants.InvoiceStatusAcknowledged,
		loadTo:      constants.LoadStatusInvoiceAcknowledged,
		timeColumn:  "acknowledged_at",
	}
	stepPay = invoiceStep{
		action:      ActionPay,
		invoiceFrom: constants.InvoiceStatusAcknowledged,
		invoiceTo:   constants.InvoiceStatusPaid,
		loadTo:      constants.LoadStatusInvoicePaid,
		timeColumn:  "paid_at",
	}
)

// CreateInvoice 管理员为已成交货源开具账单
func (s *InvoiceService) CreateInvoice(actor Actor, loadID uint) (*models.Invoice, error) {
	if err := authorize(s.authorizer, actor, ObjectInvoices, ActionCreate); err != nil {
		return nil, rejectTransition(constants.EntityInvoice, err)
	}
	var (
		invoice *models.Invoice
		load    *models.Load
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		load, err = loadRepo.GetByIDForUpdate(loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if load.Status != constants.LoadStatusAwarded || load.AssignedCarrierID == nil || load.AgreedAmount == nil {
			return ErrInvalidTransition
		}
		existing, err := invoiceRepo.GetByLoadID(load.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyProcessed
		}
		invoice = &models.Invoice{
			InvoiceNo: models.FormatInvoiceNo(load.ID),
			LoadID:    load.ID,
			ShipperID: load.ShipperID,
			CarrierID: *load.AssignedCarrierID,
			Amount:    *load.AgreedAmount,
			Status:    constants.InvoiceStatusCreated,
			CreatedBy: actor.ID,
		}
		if err := invoiceRepo.Create(invoice); err != nil {
			return err
		}
		if err := recordTransition(logRepo, constants.EntityInvoice, invoice.ID, "", invoice.Status, actor, ""); err != nil {
			return err
		}
		return transitionLoad(loadRepo, logRepo, load, constants.LoadStatusInvoiceCreated, actor, "", nil)
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityInvoice, err)
	}
	logger.Infow("invoice_created", "invoice_id", invoice.ID, "load_id", load.ID, "amount", invoice.Amount.String())
	publishAll(s.publisher, []events.Event{loadUpdatedEvent(load)})
	return invoice, nil
}

// SendInvoice 管理员发送账单给货主
func (s *InvoiceService) SendInvoice(actor Actor, invoiceID uint) (*models.Invoice, error) {
	return s.advance(actor, invoiceID, stepSend)
}

// AcknowledgeInvoice 货主确认账单
func (s *InvoiceService) AcknowledgeInvoice(actor Actor, invoiceID uint) (*models.Invoice, error) {
	return s.advance(actor, invoiceID, stepAcknowledge)
}

// MarkInvoicePaid 管理员确认收款
func (s *InvoiceService) MarkInvoicePaid(actor Actor, invoiceID uint) (*models.Invoice, error) {
	return s.advance(actor, invoiceID, stepPay)
}

func (s *InvoiceService) advance(actor Actor, invoiceID uint, step invoiceStep) (*models.Invoice, error) {
	if err := authorize(s.authorizer, actor, ObjectInvoices, step.action); err != nil {
		return nil, rejectTransition(constants.EntityInvoice, err)
	}
	var (
		invoice *models.Invoice
		load    *models.Load
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		loadRepo := s.loadRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)
		var err error
		invoice, err = invoiceRepo.GetByID(invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return ErrInvoiceNotFound
		}
		load, err = loadRepo.GetByIDForUpdate(invoice.LoadID)
		if err != nil {
			return err
		}
		if load == nil {
			return ErrLoadNotFound
		}
		if step.action == ActionAcknowledge && !actor.IsAdmin() && !(actor.IsShipper() && load.ShipperID == actor.ID) {
			return ErrUnauthorized
		}
		if invoice.Status != step.invoiceFrom {
			if invoice.Status == step.invoiceTo {
				return ErrAlreadyProcessed
			}
			return ErrInvalidTransition
		}
		if !invoiceTransitions.allows(invoice.Status, step.invoiceTo) {
			return ErrInvalidTransition
		}
		ok, err := invoiceRepo.TransitionStatus(invoice.ID, []string{step.invoiceFrom}, step.invoiceTo, map[string]interface{}{
			step.timeColumn: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		if err := recordTransition(logRepo, constants.EntityInvoice, invoice.ID, step.invoiceFrom, step.invoiceTo, actor, ""); err != nil {
			return err
		}
		invoice.Status = step.invoiceTo
		return transitionLoad(loadRepo, logRepo, load, step.loadTo, actor, "", nil)
	})
	if err != nil {
		return nil, rejectTransition(constants.EntityInvoice, err)
	}
	invoice, err = s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	publishAll(s.publisher, []events.Event{loadUpdatedEvent(load)})
	return invoice, nil
}

// GetInvoice 获取账单
func (s *InvoiceService) GetInvoice(actor Actor, invoiceID uint) (*models.Invoice, error) {
	if err := authorize(s.authorizer, actor, ObjectInvoices, ActionRead); err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || !invoiceVisibleTo(actor, invoice) {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// GetInvoiceByLoad 根据货源获取账单
func (s *InvoiceService) GetInvoiceByLoad(actor Actor, loadID uint) (*models.Invoice, error) {
	if err := authorize(s.authorizer, actor, ObjectInvoices, ActionRead); err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.GetByLoadID(loadID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || !invoiceVisibleTo(actor, invoice) {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

func invoiceVisibleTo(actor Actor, invoice *models.Invoice) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsShipper():
		return invoice.ShipperID == actor.ID
	case actor.IsCarrier():
		return invoice.CarrierID == actor.ID
	default:
		return false
	}
}
