package services

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockGatewayRoundTrip(t *testing.T) {
	gateway := NewMockGateway()

	checkIn := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	redirect, ref, err := gateway.Initiate(PaymentIntent{
		ListingID:  7,
		UserID:     3,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: 300,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if !strings.Contains(redirect, "mock_payment=true") {
		t.Errorf("redirect %q missing mock_payment flag", redirect)
	}

	intent, err := gateway.Confirm(ref)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !intent.Paid {
		t.Error("mock session not marked paid")
	}
	if intent.ListingID != 7 || intent.UserID != 3 {
		t.Errorf("intent ids = (%d, %d), want (7, 3)", intent.ListingID, intent.UserID)
	}
	if !intent.CheckIn.Equal(checkIn) || !intent.CheckOut.Equal(checkOut) {
		t.Errorf("intent dates = (%v, %v)", intent.CheckIn, intent.CheckOut)
	}
	if !strings.HasPrefix(intent.PaymentID, "mock_") {
		t.Errorf("PaymentID = %q, want mock_ prefix", intent.PaymentID)
	}

	// sessions are single-use
	if _, err := gateway.Confirm(ref); err == nil {
		t.Error("second Confirm on same ref should fail")
	}
}

func TestOmiseGatewayRequiresFundingSource(t *testing.T) {
	gateway, err := NewOmiseGateway("pkey_test_x", "skey_test_x", "https://example.com/return")
	if err != nil {
		t.Fatalf("NewOmiseGateway: %v", err)
	}

	// rejected locally, before any charge request is attempted
	_, _, initErr := gateway.Initiate(PaymentIntent{
		ListingID:  1,
		UserID:     2,
		TotalPrice: 100,
	})
	var verr *ValidationError
	if !errors.As(initErr, &verr) {
		t.Fatalf("expected ValidationError without card or source, got %v", initErr)
	}
}

func TestMockGatewayCarriesFundingSource(t *testing.T) {
	gateway := NewMockGateway()

	_, ref, err := gateway.Initiate(PaymentIntent{
		ListingID: 1,
		UserID:    2,
		CardToken: "tokn_test_visa",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	intent, err := gateway.Confirm(ref)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if intent.CardToken != "tokn_test_visa" {
		t.Errorf("CardToken = %q, want tokn_test_visa", intent.CardToken)
	}
}

func TestSyntheticPaymentID(t *testing.T) {
	a := SyntheticPaymentID()
	b := SyntheticPaymentID()
	if !strings.HasPrefix(a, "mock_") {
		t.Errorf("id = %q, want mock_ prefix", a)
	}
	if a == b {
		t.Error("synthetic ids should be unique")
	}
}
