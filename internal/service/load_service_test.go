package service

import (
	"errors"
	"testing"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
)

func TestLoadLifecycleHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	load := f.openLoad(t)
	if load.Status != constants.LoadStatusOpenForBid {
		t.Fatalf("status want open_for_bid got %s", load.Status)
	}
	if load.AdminFinalPrice == nil || load.AdminFinalPrice.String() != "1000.00" {
		t.Fatalf("admin price want 1000.00 got %+v", load.AdminFinalPrice)
	}
	if load.ReferenceNo == "" {
		t.Fatalf("reference no should be assigned")
	}

	logs, total, err := f.loads.ListHistory(testAdmin, repository.TransitionLogListFilter{
		EntityType: constants.EntityLoad,
		EntityID:   load.ID,
	})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if total != 4 || len(logs) != 4 {
		t.Fatalf("history want 4 entries got %d", total)
	}

	updates := f.publisher.named(constants.EventLoadUpdated)
	if len(updates) != 4 {
		t.Fatalf("load_updated events want 4 got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.NewStatus != constants.LoadStatusOpenForBid {
		t.Fatalf("last event status want open_for_bid got %s", last.NewStatus)
	}
	foundBroadcast := false
	for _, r := range last.Recipients {
		if r == "carriers" {
			foundBroadcast = true
		}
	}
	if !foundBroadcast {
		t.Fatalf("open_for_bid event should reach carriers channel: %+v", last.Recipients)
	}
}

func TestPriceLoadRequiresAdmin(t *testing.T) {
	f := newServiceFixture(t)
	load, err := f.loads.CreateLoad(testShipper, CreateLoadInput{
		PickupLocation:  "Nairobi",
		DropoffLocation: "Kampala",
		WeightKg:        models.MustMoney("500"),
	})
	if err != nil {
		t.Fatalf("create load failed: %v", err)
	}

	_, err = f.loads.PriceLoad(testShipper, load.ID, models.MustMoney("300"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("shipper pricing want Unauthorized got %v", err)
	}
	stored, _ := f.loadRepo.GetByID(load.ID)
	if stored.Status != constants.LoadStatusPending || stored.AdminFinalPrice != nil {
		t.Fatalf("load must stay unpriced, got %s %+v", stored.Status, stored.AdminFinalPrice)
	}

	if _, err := f.loads.PriceLoad(testAdmin, load.ID, models.MustMoney("0")); !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("zero price want ErrPriceInvalid got %v", err)
	}
}

func TestLoadRejectsSkippedTransitions(t *testing.T) {
	f := newServiceFixture(t)
	load, err := f.loads.CreateLoad(testShipper, CreateLoadInput{
		PickupLocation:  "Nairobi",
		DropoffLocation: "Kampala",
		WeightKg:        models.MustMoney("500"),
	})
	if err != nil {
		t.Fatalf("create load failed: %v", err)
	}

	if _, err := f.loads.OpenLoadForBids(testAdmin, load.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> open_for_bid want InvalidTransition got %v", err)
	}
	if _, err := f.loads.CloseLoad(testAdmin, load.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> closed want InvalidTransition got %v", err)
	}
	if _, err := f.loads.UpdateLoadStatus(testAdmin, load.ID, UpdateLoadStatusInput{Status: constants.LoadStatusInTransit}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("manual in_transit want InvalidTransition got %v", err)
	}
	if _, err := f.loads.UpdateLoadStatus(testAdmin, load.ID, UpdateLoadStatusInput{}); !errors.Is(err, ErrTargetStatusInvalid) {
		t.Fatalf("empty target want ErrTargetStatusInvalid got %v", err)
	}
	if _, err := f.loads.GetLoad(testAdmin, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing load want NotFound got %v", err)
	}
}

func TestUpdateLoadStatusDispatchesByTarget(t *testing.T) {
	f := newServiceFixture(t)
	load, err := f.loads.CreateLoad(testShipper, CreateLoadInput{
		PickupLocation:  "Nairobi",
		DropoffLocation: "Kampala",
		WeightKg:        models.MustMoney("500"),
	})
	if err != nil {
		t.Fatalf("create load failed: %v", err)
	}
	price := models.MustMoney("800")
	steps := []UpdateLoadStatusInput{
		{Status: "priced", Price: &price},
		{Status: "posted_to_carriers"},
		{Status: "open_for_bid"},
	}
	for _, step := range steps {
		updated, err := f.loads.UpdateLoadStatus(testAdmin, load.ID, step)
		if err != nil {
			t.Fatalf("update to %s failed: %v", step.Status, err)
		}
		if updated.Status != step.Status {
			t.Fatalf("status want %s got %s", step.Status, updated.Status)
		}
	}
}

func TestCancelLoadRules(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")

	load := f.openLoad(t)
	bid, err := f.bids.CreateBid(CarrierActor(carrier.ID), CreateBidInput{LoadID: load.ID, Amount: models.MustMoney("900")})
	if err != nil {
		t.Fatalf("create bid failed: %v", err)
	}
	if _, err := f.loads.CancelLoad(ShipperActor(99), load.ID, "not mine"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign shipper cancel want Unauthorized got %v", err)
	}
	cancelled, err := f.loads.CancelLoad(testShipper, load.ID, "plans changed")
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if cancelled.Status != constants.LoadStatusCancelled || cancelled.CancelReason != "plans changed" {
		t.Fatalf("cancel result unexpected: %+v", cancelled)
	}
	storedBid, _ := f.bidRepo.GetByID(bid.ID)
	if storedBid.Status != constants.BidStatusExpired {
		t.Fatalf("open bid want expired got %s", storedBid.Status)
	}
	if _, err := f.loads.CancelLoad(testAdmin, load.ID, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel of cancelled want InvalidTransition got %v", err)
	}

	awarded := f.openLoad(t)
	bid2, err := f.bids.CreateBid(CarrierActor(carrier.ID), CreateBidInput{LoadID: awarded.ID, Amount: models.MustMoney("900")})
	if err != nil {
		t.Fatalf("create bid failed: %v", err)
	}
	result, err := f.bids.AcceptBid(testShipper, bid2.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.loads.CancelLoad(testShipper, awarded.ID, "too late"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("shipper cancel after award want Unauthorized got %v", err)
	}
	adminCancelled, err := f.loads.CancelLoad(testAdmin, awarded.ID, "carrier no-show")
	if err != nil {
		t.Fatalf("admin cancel after award failed: %v", err)
	}
	if adminCancelled.AssignedCarrierID != nil {
		t.Fatalf("assigned carrier should be cleared")
	}
	shipment, _ := f.shipRepo.GetByID(result.Shipment.ID)
	if shipment.Status != constants.ShipmentStatusCancelled || shipment.CancelledAt == nil {
		t.Fatalf("shipment want cancelled got %+v", shipment)
	}
}

func TestCancelForbiddenOnceInTransit(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	load, shipment := f.paidShipment(t, carrier)
	f.fixedCode("483921")

	request, err := f.otps.RequestOtp(CarrierActor(carrier.ID), shipment.ID, constants.OtpRequestTypeTripStart)
	if err != nil {
		t.Fatalf("request otp failed: %v", err)
	}
	if _, err := f.otps.ApproveOtp(testAdmin, request.ID, 10); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := f.otps.VerifyOtp(CarrierActor(carrier.ID), shipment.ID, constants.OtpRequestTypeTripStart, "483921"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := f.loads.CancelLoad(testAdmin, load.ID, "stop"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel in_transit want InvalidTransition got %v", err)
	}
}

func TestUnavailableAndResubmit(t *testing.T) {
	f := newServiceFixture(t)
	load := f.openLoad(t)

	unavailable, err := f.loads.MakeLoadUnavailable(testShipper, load.ID, "truck shortage")
	if err != nil {
		t.Fatalf("make unavailable failed: %v", err)
	}
	if unavailable.Status != constants.LoadStatusUnavailable {
		t.Fatalf("status want unavailable got %s", unavailable.Status)
	}
	resubmitted, err := f.loads.ResubmitLoad(testShipper, load.ID)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if resubmitted.Status != constants.LoadStatusPending || resubmitted.AdminFinalPrice != nil {
		t.Fatalf("resubmit want pending without price got %s %+v", resubmitted.Status, resubmitted.AdminFinalPrice)
	}
}

func TestResubmitReentersOpenForBidWhenConfigured(t *testing.T) {
	f := newServiceFixture(t)
	f.loads.lifecycle = config.LifecycleConfig{UnavailableReentryStatus: constants.LoadStatusOpenForBid}
	load := f.openLoad(t)
	if _, err := f.loads.MakeLoadUnavailable(testAdmin, load.ID, ""); err != nil {
		t.Fatalf("make unavailable failed: %v", err)
	}
	resubmitted, err := f.loads.ResubmitLoad(testShipper, load.ID)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if resubmitted.Status != constants.LoadStatusOpenForBid {
		t.Fatalf("status want open_for_bid got %s", resubmitted.Status)
	}
}

func TestListLoadsScopesByRole(t *testing.T) {
	f := newServiceFixture(t)
	f.openLoad(t)
	if _, err := f.loads.CreateLoad(ShipperActor(8), CreateLoadInput{
		PickupLocation:  "Arusha",
		DropoffLocation: "Dodoma",
		WeightKg:        models.MustMoney("100"),
	}); err != nil {
		t.Fatalf("create load failed: %v", err)
	}

	_, total, err := f.loads.ListLoads(testShipper, repository.LoadListFilter{})
	if err != nil || total != 1 {
		t.Fatalf("shipper list want 1 got %d err %v", total, err)
	}
	_, total, err = f.loads.ListLoads(testAdmin, repository.LoadListFilter{})
	if err != nil || total != 2 {
		t.Fatalf("admin list want 2 got %d err %v", total, err)
	}
	rows, total, err := f.loads.ListLoads(CarrierActor(3), repository.LoadListFilter{})
	if err != nil || total != 1 || rows[0].Status != constants.LoadStatusOpenForBid {
		t.Fatalf("carrier list want 1 open load got %d err %v", total, err)
	}
	_, total, err = f.loads.ListLoads(CarrierActor(3), repository.LoadListFilter{Statuses: []string{constants.LoadStatusPending}})
	if err != nil || total != 0 {
		t.Fatalf("carrier must not see pending loads, got %d err %v", total, err)
	}
}

func TestShipperCancelAfterAwardWhenAllowed(t *testing.T) {
	f := newServiceFixture(t)
	f.loads.lifecycle.ShipperCancelAfterAward = true
	carrier := f.createSoloCarrier(t, "C1")
	load, shipment := f.paidShipment(t, carrier)

	cancelled, err := f.loads.CancelLoad(testShipper, load.ID, "buyer backed out")
	if err != nil {
		t.Fatalf("shipper cancel after award failed: %v", err)
	}
	if cancelled.Status != constants.LoadStatusCancelled || cancelled.AssignedCarrierID != nil {
		t.Fatalf("load want cancelled without carrier got %s %v", cancelled.Status, cancelled.AssignedCarrierID)
	}
	stored, _ := f.shipRepo.GetByID(shipment.ID)
	if stored.Status != constants.ShipmentStatusCancelled {
		t.Fatalf("shipment want cancelled got %s", stored.Status)
	}
	if _, err := f.loads.CancelLoad(ShipperActor(99), load.ID, "not mine"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign shipper want Unauthorized got %v", err)
	}
}
