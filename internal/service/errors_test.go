package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	blocked := &ComplianceBlockedError{BlockingDocs: []BlockingDoc{
		{SubjectKind: "carrier", SubjectID: 1, DocumentType: "insurance", Reason: "expired"},
		{SubjectKind: "truck", SubjectID: 2, DocumentType: "insurance", Reason: "missing"},
		{SubjectKind: "truck", SubjectID: 2, DocumentType: "permit", Reason: "missing"},
	}}
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("boom"), ""},
		{ErrLoadNotFound, "NotFound"},
		{ErrSoloResourceFixed, "InvalidTransition"},
		{ErrCarrierSuspended, "Unauthorized"},
		{ErrValidityOutOfRange, "BadRequest"},
		{fmt.Errorf("wrap: %w", ErrAlreadyAwarded), "AlreadyAwarded"},
		{blocked, "ComplianceBlocked"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) want %q got %q", tc.err, tc.want, got)
		}
	}
	types := blocked.DocumentTypes()
	if len(types) != 2 || types[0] != "insurance" || types[1] != "permit" {
		t.Fatalf("document types want [insurance permit] got %v", types)
	}
}

func TestTransitionTables(t *testing.T) {
	if loadTransitions.allows("open_for_bid", "in_transit") {
		t.Fatalf("open_for_bid must not skip to in_transit")
	}
	if loadTransitions.allows("in_transit", "cancelled") {
		t.Fatalf("in_transit must not be cancellable")
	}
	if !loadTransitions.allows("counter_received", "open_for_bid") {
		t.Fatalf("counter_received should revert to open_for_bid")
	}
	sources := loadTransitions.sources("awarded")
	if len(sources) != 2 || sources[0] != "counter_received" || sources[1] != "open_for_bid" {
		t.Fatalf("awarded sources want [counter_received open_for_bid] got %v", sources)
	}
	for _, terminal := range []string{"accepted", "rejected", "expired"} {
		if len(bidTransitions[terminal]) != 0 {
			t.Fatalf("bid status %s must be terminal", terminal)
		}
	}
	if !IsCarrierAssignedLoadStatus("invoice_paid") || IsCarrierAssignedLoadStatus("open_for_bid") {
		t.Fatalf("carrier assigned statuses mismatch")
	}
}
