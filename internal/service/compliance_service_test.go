package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freightlane/internal/constants"
)

func TestComplianceEvaluateUsesLatestDocument(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	now := time.Now()
	subjects := []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: carrier.ID}}

	decision, err := f.compliance.Evaluate(constants.CarrierKindSolo, subjects, now)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !decision.Permit || decision.Err() != nil {
		t.Fatalf("fresh carrier should be permitted: %+v", decision)
	}

	soon := now.AddDate(0, 0, 10)
	f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, constants.DocumentTypeDrivingLicense, &soon)
	decision, err = f.compliance.Evaluate(constants.CarrierKindSolo, subjects, now)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !decision.Permit || len(decision.ExpiringSoon) != 1 {
		t.Fatalf("expiring soon is advisory only: %+v", decision)
	}

	past := now.Add(-time.Hour)
	f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, constants.DocumentTypeDrivingLicense, &past)
	decision, err = f.compliance.Evaluate(constants.CarrierKindSolo, subjects, now)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Permit || len(decision.BlockingDocs) != 1 || decision.BlockingDocs[0].Reason != BlockReasonExpired {
		t.Fatalf("latest expired license should block: %+v", decision)
	}
	if !errors.Is(decision.Err(), ErrComplianceBlocked) {
		t.Fatalf("decision error want ComplianceBlocked got %v", decision.Err())
	}
}

func TestComplianceExpiryBoundary(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	subjects := []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: carrier.ID}}
	expiry := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, constants.DocumentTypePermit, &expiry)
	f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, constants.DocumentTypeInsurance, &expiry)

	decision, err := f.compliance.Evaluate(constants.CarrierKindSolo, subjects, expiry)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Permit {
		t.Fatalf("document expiring exactly now must not satisfy")
	}
	decision, err = f.compliance.Evaluate(constants.CarrierKindSolo, subjects, expiry.Add(-time.Second))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !decision.Permit {
		t.Fatalf("document valid one second before expiry: %+v", decision)
	}
}

func TestComplianceMissingDocument(t *testing.T) {
	f := newServiceFixture(t)
	carrier, err := f.fleet.CreateCarrier(testAdmin, CreateCarrierInput{Kind: constants.CarrierKindSolo, Name: "Bare"})
	if err != nil {
		t.Fatalf("create carrier failed: %v", err)
	}
	variant, err := NewCarrierVariant(carrier)
	if err != nil {
		t.Fatalf("variant failed: %v", err)
	}
	err = f.compliance.CheckBid(variant)
	var blocked *ComplianceBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want ComplianceBlockedError got %v", err)
	}
	want := []string{"driving_license", "fitness_certificate", "insurance", "vehicle_registration"}
	got := blocked.DocumentTypes()
	if len(got) != len(want) {
		t.Fatalf("blocking docs want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("blocking docs want %v got %v", want, got)
		}
	}
}

func TestCarrierComplianceRecord(t *testing.T) {
	f := newServiceFixture(t)
	carrier := f.createSoloCarrier(t, "C1")
	past := time.Now().AddDate(0, 0, -2)
	f.addDocument(t, constants.DocumentOwnerCarrier, carrier.ID, constants.DocumentTypeInsurance, &past)

	record, err := f.documents.ComplianceRecord(context.Background(), CarrierActor(carrier.ID), carrier.ID)
	if err != nil {
		t.Fatalf("compliance record failed: %v", err)
	}
	if record.CarrierKind != constants.CarrierKindSolo || len(record.Subjects) != 2 {
		t.Fatalf("record want carrier + truck subjects got %+v", record)
	}
	carrierSubject := record.Subjects[0]
	if len(carrierSubject.Expired) != 1 || carrierSubject.Expired[0].DocumentType != constants.DocumentTypeInsurance {
		t.Fatalf("expired insurance expected: %+v", carrierSubject)
	}
	if _, err := f.documents.ComplianceRecord(context.Background(), CarrierActor(carrier.ID+100), carrier.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign carrier want Unauthorized got %v", err)
	}
}
