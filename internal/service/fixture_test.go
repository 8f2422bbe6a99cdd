package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePublisher) named(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]events.Event, 0)
	for _, evt := range p.events {
		if evt.Name == name {
			result = append(result, evt)
		}
	}
	return result
}

func (p *capturePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type serviceFixture struct {
	db         *gorm.DB
	publisher  *capturePublisher
	loadRepo   *repository.GormLoadRepository
	bidRepo    *repository.GormBidRepository
	otpRepo    *repository.GormOtpRepository
	shipRepo   *repository.GormShipmentRepository
	docRepo    *repository.GormDocumentRepository
	fleetRepo  *repository.GormFleetRepository
	compliance *ComplianceService
	loads      *LoadService
	bids       *BidService
	shipments  *ShipmentService
	invoices   *InvoiceService
	otps       *OtpService
	documents  *DocumentService
	fleet      *FleetService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	f := &serviceFixture{
		db:        db,
		publisher: &capturePublisher{},
		loadRepo:  repository.NewLoadRepository(db),
		bidRepo:   repository.NewBidRepository(db),
		otpRepo:   repository.NewOtpRepository(db),
		shipRepo:  repository.NewShipmentRepository(db),
		docRepo:   repository.NewDocumentRepository(db),
		fleetRepo: repository.NewFleetRepository(db),
	}
	invoiceRepo := repository.NewInvoiceRepository(db)
	logRepo := repository.NewTransitionLogRepository(db)

	f.compliance = NewComplianceService(f.docRepo, f.fleetRepo, config.ComplianceConfig{
		ExpiringSoonDays: 30,
		Requirements:     config.DefaultComplianceRequirements(),
	})
	f.loads = NewLoadService(f.loadRepo, f.bidRepo, f.shipRepo, invoiceRepo, logRepo, nil, f.publisher, config.LifecycleConfig{
		UnavailableReentryStatus: constants.LoadStatusPending,
	})
	f.bids = NewBidService(f.loadRepo, f.bidRepo, f.shipRepo, f.fleetRepo, logRepo, f.compliance, nil, f.publisher)
	f.shipments = NewShipmentService(f.shipRepo, f.loadRepo, f.fleetRepo, nil)
	f.invoices = NewInvoiceService(invoiceRepo, f.loadRepo, logRepo, nil, f.publisher)
	f.otps = NewOtpService(f.otpRepo, f.shipRepo, f.loadRepo, f.fleetRepo, logRepo, f.compliance, nil, f.publisher, config.OtpConfig{
		CodeLength:             6,
		MinValidityMinutes:     5,
		MaxValidityMinutes:     60,
		DefaultValidityMinutes: 10,
		MaxAttempts:            5,
		HashCost:               bcrypt.MinCost,
	})
	f.documents = NewDocumentService(f.docRepo, f.fleetRepo, f.compliance, nil, f.publisher)
	f.fleet = NewFleetService(f.fleetRepo, nil)
	return f
}

var (
	testAdmin   = AdminActor(1)
	testShipper = ShipperActor(7)
)

// createSoloCarrier 创建证件齐全的个体司机及其登记车辆
func (f *serviceFixture) createSoloCarrier(t *testing.T, name string) *models.Carrier {
	t.Helper()
	carrier, err := f.fleet.CreateCarrier(testAdmin, CreateCarrierInput{Kind: constants.CarrierKindSolo, Name: name})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	if _, err := f.fleet.CreateTruck(testAdmin, CreateTruckInput{
		CarrierID:   carrier.ID,
		PlateNumber: fmt.Sprintf("KDA-%s", name),
		CapacityKg:  models.MustMoney("15000"),
	}); err != nil {
		t.Fatalf("create truck failed: %v", err)
	}
	future := time.Now().AddDate(1, 0, 0)
	for _, docType := range config.DefaultComplianceRequirements()[constants.CarrierKindSolo][constants.DocumentOwnerCarrier] {
		f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, docType, &future)
	}
	stored, err := f.fleetRepo.GetCarrierByID(carrier.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload carrier failed: %v", err)
	}
	return stored
}

func (f *serviceFixture) addDocument(t *testing.T, ownerType string, ownerID uint, docType string, expiry *time.Time) {
	t.Helper()
	doc := &models.Document{
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		DocumentType: docType,
		ExpiryDate:   expiry,
		UploadedBy:   1,
	}
	if err := f.docRepo.Create(doc); err != nil {
		t.Fatalf("create document failed: %v", err)
	}
}

// openLoad 推进一个货源到 open_for_bid
func (f *serviceFixture) openLoad(t *testing.T) *models.Load {
	t.Helper()
	load, err := f.loads.CreateLoad(testShipper, CreateLoadInput{
		PickupLocation:  "Nairobi",
		DropoffLocation: "Kampala",
		WeightKg:        models.MustMoney("12000"),
		TruckType:       "flatbed",
	})
	if err != nil {
		t.Fatalf("create load failed: %v", err)
	}
	if _, err := f.loads.PriceLoad(testAdmin, load.ID, models.MustMoney("1000")); err != nil {
		t.Fatalf("price load failed: %v", err)
	}
	if _, err := f.loads.PostLoad(testAdmin, load.ID); err != nil {
		t.Fatalf("post load failed: %v", err)
	}
	opened, err := f.loads.OpenLoadForBids(testAdmin, load.ID)
	if err != nil {
		t.Fatalf("open load failed: %v", err)
	}
	return opened
}

// paidShipment 成交并完成账单结算，返回可申请发车验证码的运单
func (f *serviceFixture) paidShipment(t *testing.T, carrier *models.Carrier) (*models.Load, *models.Shipment) {
	t.Helper()
	load := f.openLoad(t)
	bid, err := f.bids.CreateBid(CarrierActor(carrier.ID), CreateBidInput{LoadID: load.ID, Amount: models.MustMoney("950")})
	if err != nil {
		t.Fatalf("create bid failed: %v", err)
	}
	award, err := f.bids.AcceptBid(testShipper, bid.ID)
	if err != nil {
		t.Fatalf("accept bid failed: %v", err)
	}
	invoice, err := f.invoices.CreateInvoice(testAdmin, load.ID)
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if _, err := f.invoices.SendInvoice(testAdmin, invoice.ID); err != nil {
		t.Fatalf("send invoice failed: %v", err)
	}
	if _, err := f.invoices.AcknowledgeInvoice(testShipper, invoice.ID); err != nil {
		t.Fatalf("acknowledge invoice failed: %v", err)
	}
	if _, err := f.invoices.MarkInvoicePaid(testAdmin, invoice.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	stored, err := f.loadRepo.GetByID(load.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload load failed: %v", err)
	}
	if stored.Status != constants.LoadStatusInvoicePaid {
		t.Fatalf("load status want invoice_paid got %s", stored.Status)
	}
	return stored, award.Shipment
}

func (f *serviceFixture) fixedCode(code string) {
	f.otps.generateCode = func(int) (string, error) { return code, nil }
}
