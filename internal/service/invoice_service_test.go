package service

import (
	"errors"
	"testing"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"
)

func TestInvoiceSettlementOrder(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	load := f.openLoad(t)
	bid, err := f.bids.CreateBid(CarrierActor(carrier.ID), CreateBidInput{LoadID: load.ID, Amount: models.MustMoney("975.5")})
	if err != nil {
		t.Fatalf("create bid failed: %v", err)
	}
	if _, err := f.invoices.CreateInvoice(testAdmin, load.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("invoice before award want InvalidTransition got %v", err)
	}
	if _, err := f.bids.AcceptBid(testShipper, bid.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	invoice, err := f.invoices.CreateInvoice(testAdmin, load.ID)
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if invoice.Amount.String() != "975.50" || invoice.CarrierID != carrier.ID {
		t.Fatalf("invoice should carry agreed amount and carrier: %+v", invoice)
	}
	if invoice.InvoiceNo != models.FormatInvoiceNo(load.ID) {
		t.Fatalf("invoice no want %s got %s", models.FormatInvoiceNo(load.ID), invoice.InvoiceNo)
	}
	if _, err := f.invoices.CreateInvoice(testAdmin, load.ID); err == nil {
		t.Fatalf("second invoice should fail")
	}
	if _, err := f.invoices.MarkInvoicePaid(testAdmin, invoice.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pay before send want InvalidTransition got %v", err)
	}
	if _, err := f.invoices.SendInvoice(testAdmin, invoice.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := f.invoices.SendInvoice(testAdmin, invoice.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("send twice want AlreadyProcessed got %v", err)
	}
	if _, err := f.invoices.AcknowledgeInvoice(ShipperActor(99), invoice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign shipper acknowledge want Unauthorized got %v", err)
	}
	acknowledged, err := f.invoices.AcknowledgeInvoice(testShipper, invoice.ID)
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if acknowledged.Status != constants.InvoiceStatusAcknowledged || acknowledged.AcknowledgedAt == nil {
		t.Fatalf("acknowledge result unexpected: %+v", acknowledged)
	}
	if _, err := f.invoices.MarkInvoicePaid(testAdmin, invoice.ID); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	stored, _ := f.loadRepo.GetByID(load.ID)
	if stored.Status != constants.LoadStatusInvoicePaid {
		t.Fatalf("load want invoice_paid got %s", stored.Status)
	}
	if _, err := f.invoices.GetInvoice(CarrierActor(carrier.ID), invoice.ID); err != nil {
		t.Fatalf("assigned carrier should see invoice: %v", err)
	}
	if _, err := f.invoices.GetInvoice(ShipperActor(99), invoice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign shipper want NotFound got %v", err)
	}
}

func TestAdminCancelVoidsInvoice(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	load := f.openLoad(t)
	bid, err := f.bids.CreateBid(CarrierActor(carrier.ID), CreateBidInput{LoadID: load.ID, Amount: models.MustMoney("900")})
	if err != nil {
		t.Fatalf("create bid failed: %v", err)
	}
	if _, err := f.bids.AcceptBid(testShipper, bid.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	invoice, err := f.invoices.CreateInvoice(testAdmin, load.ID)
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if _, err := f.loads.CancelLoad(testAdmin, load.ID, "shipper withdrew"); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	stored, err := f.invoices.GetInvoice(testAdmin, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice failed: %v", err)
	}
	if stored.Status != constants.InvoiceStatusVoid {
		t.Fatalf("invoice want void got %s", stored.Status)
	}
}
