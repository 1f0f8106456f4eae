package validator

import (
	"errors"
	"testing"
)

type identifierPayload struct {
	Identifier string `validate:"required,identifier"`
}

type clientIDPayload struct {
	ClientID string `validate:"required,clientid"`
}

func TestIdentifierRule(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	valid := []string{
		"+15551234567",
		"+6281234567890",
		"user@example.com",
		"first.last+tag@sub.example.co.id",
	}
	for _, id := range valid {
		if err := v.Validate(identifierPayload{Identifier: id}); err != nil {
			t.Errorf("identifier %q should be valid: %v", id, err)
		}
	}

	invalid := []string{
		"",
		"15551234567",       // missing +
		"+0123456",          // leading zero country code
		"+1 (555) 123-4567", // formatting characters
		"not-an-email",
		"user@",
		"@example.com",
		"user @example.com",
	}
	for _, id := range invalid {
		if err := v.Validate(identifierPayload{Identifier: id}); err == nil {
			t.Errorf("identifier %q should be invalid", id)
		}
	}
}

func TestClientIDRule(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	valid := []string{"abc", "acme-corp", "a1b2c3", "x-y-z"}
	for _, id := range valid {
		if err := v.Validate(clientIDPayload{ClientID: id}); err != nil {
			t.Errorf("client id %q should be valid: %v", id, err)
		}
	}

	invalid := []string{"", "ab", "-acme", "acme-", "Acme", "acme corp", "a_b"}
	for _, id := range invalid {
		if err := v.Validate(clientIDPayload{ClientID: id}); err == nil {
			t.Errorf("client id %q should be invalid", id)
		}
	}
}

func TestValidationErrorFieldMap(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	err = v.Validate(clientIDPayload{ClientID: "NOPE"})
	var fieldErrs V10ValidationError
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected V10ValidationError, got %T", err)
	}
	if _, ok := fieldErrs["client_id"]; !ok {
		t.Fatalf("expected snake_case field key, got %v", fieldErrs.Values())
	}
}
