package entity

import (
	"testing"
	"time"
)

func TestApiKeyFieldsRoundTrip(t *testing.T) {
	key := ApiKey{
		ClientID:     "acme-corp",
		Status:       KeyStatusActive,
		MonthlyLimit: 500,
		Usage:        42,
		PeriodStart:  "2026-03",
		CreatedAt:    time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC),
	}

	parsed, err := ParseApiKey(key.Fields())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *parsed != key {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *parsed, key)
	}
}

func TestParseApiKeyFailsClosed(t *testing.T) {
	valid := func() map[string]string {
		return ApiKey{
			ClientID:     "acme-corp",
			Status:       KeyStatusPaused,
			MonthlyLimit: 10,
			Usage:        0,
			PeriodStart:  "2026-03",
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}.Fields()
	}

	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing client id", func(f map[string]string) { delete(f, FieldClientID) }},
		{"unknown status", func(f map[string]string) { f[FieldStatus] = "frozen" }},
		{"bad created at", func(f map[string]string) { f[FieldCreatedAt] = "yesterday" }},
		{"non numeric limit", func(f map[string]string) { f[FieldMonthlyLimit] = "lots" }},
		{"negative limit", func(f map[string]string) { f[FieldMonthlyLimit] = "-1" }},
		{"non numeric usage", func(f map[string]string) { f[FieldUsage] = "some" }},
		{"negative usage", func(f map[string]string) { f[FieldUsage] = "-3" }},
		{"bad period", func(f map[string]string) { f[FieldPeriodStart] = "March 2026" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := valid()
			tc.mutate(fields)
			if _, err := ParseApiKey(fields); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestKeyStatusRoundTrip(t *testing.T) {
	for _, status := range []KeyStatus{KeyStatusActive, KeyStatusPaused} {
		if got := KeyStatusFromString(status.String()); got != status {
			t.Errorf("status %v round trips to %v", status, got)
		}
	}
	if KeyStatusFromString("frozen") != KeyStatusUnknown {
		t.Error("unrecognized status should map to unknown")
	}
}
