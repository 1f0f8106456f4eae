package entity

import (
	"fmt"
	"strconv"
	"time"
)

// Stored hash field names for an API key record. The layout is stable across
// restarts and releases; renaming a field is a data migration.
const (
	FieldClientID     = "client_id"
	FieldStatus       = "status"
	FieldCreatedAt    = "created_at"
	FieldMonthlyLimit = "monthly_limit"
	FieldUsage        = "usage"
	FieldPeriodStart  = "period_start"
)

// PeriodLayout is the persisted format of a usage period marker
// (first-of-month granularity).
const PeriodLayout = "2006-01"

// ApiKey identifies an API consumer and its monthly issuance entitlement.
//
// The raw secret is never part of this record; only its digest keys the
// record in the store.
type ApiKey struct {
	ClientID     string
	Status       KeyStatus
	MonthlyLimit int64
	Usage        int64
	PeriodStart  string
	CreatedAt    time.Time
}

// Fields returns the record as stored hash fields.
func (k ApiKey) Fields() map[string]string {
	return map[string]string{
		FieldClientID:     k.ClientID,
		FieldStatus:       k.Status.String(),
		FieldCreatedAt:    k.CreatedAt.UTC().Format(time.RFC3339),
		FieldMonthlyLimit: strconv.FormatInt(k.MonthlyLimit, 10),
		FieldUsage:        strconv.FormatInt(k.Usage, 10),
		FieldPeriodStart:  k.PeriodStart,
	}
}

// ParseApiKey deserializes stored hash fields into an ApiKey.
//
// Parsing fails closed: any missing or malformed field is an error and the
// caller must treat the record as absent.
func ParseApiKey(fields map[string]string) (*ApiKey, error) {
	clientID := fields[FieldClientID]
	if clientID == "" {
		return nil, fmt.Errorf("entity: api key record missing %s", FieldClientID)
	}

	status := KeyStatusFromString(fields[FieldStatus])
	if status == KeyStatusUnknown {
		return nil, fmt.Errorf("entity: api key record has unrecognized %s %q", FieldStatus, fields[FieldStatus])
	}

	createdAt, err := time.Parse(time.RFC3339, fields[FieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("entity: api key record %s: %w", FieldCreatedAt, err)
	}

	limit, err := strconv.ParseInt(fields[FieldMonthlyLimit], 10, 64)
	if err != nil || limit < 0 {
		return nil, fmt.Errorf("entity: api key record has invalid %s %q", FieldMonthlyLimit, fields[FieldMonthlyLimit])
	}

	usage, err := strconv.ParseInt(fields[FieldUsage], 10, 64)
	if err != nil || usage < 0 {
		return nil, fmt.Errorf("entity: api key record has invalid %s %q", FieldUsage, fields[FieldUsage])
	}

	periodStart := fields[FieldPeriodStart]
	if _, err := time.Parse(PeriodLayout, periodStart); err != nil {
		return nil, fmt.Errorf("entity: api key record %s: %w", FieldPeriodStart, err)
	}

	return &ApiKey{
		ClientID:     clientID,
		Status:       status,
		MonthlyLimit: limit,
		Usage:        usage,
		PeriodStart:  periodStart,
		CreatedAt:    createdAt,
	}, nil
}
