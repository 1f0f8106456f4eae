package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type AuthorizeOutput struct {
	ClientID string
}

// Authorize authenticates a raw API key and enforces the monthly quota.
//
// Malformed secrets fail before any store round trip. When the stored period
// marker differs from the current month, usage is lazily reset; two racing
// resets write the same values and converge (no lock).
func (s *Usecase) Authorize(ctx context.Context, rawKey string) (*AuthorizeOutput, error) {
	ctx, span := s.startSpan(ctx, "Authorize")
	defer span.End()

	if !reSecret.MatchString(rawKey) {
		return nil, goerror.NewBusiness("API key format is invalid", goerror.CodeInvalidFormat)
	}

	digest, err := s.hmac.Hash(rawKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest api secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	recordKey := apiKeyKey(string(digest))
	fields, err := s.store.HashGetAll(ctx, recordKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read api key record", "error", err)
		return nil, goerror.NewServer(err)
	}
	if len(fields) == 0 {
		return nil, goerror.NewBusiness("Unknown API key", goerror.CodeUnauthorized)
	}

	rec, err := entity.ParseApiKey(fields)
	if err != nil {
		// Malformed stored data is treated as absent.
		slog.WarnContext(ctx, "api key record failed to deserialize", "error", err)
		return nil, goerror.NewBusiness("Unknown API key", goerror.CodeUnauthorized)
	}

	if period := s.currentPeriod(); rec.PeriodStart != period {
		if err := s.store.HashSet(ctx, recordKey, map[string]string{
			entity.FieldUsage:       "0",
			entity.FieldPeriodStart: period,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to roll over usage period", "client_id", rec.ClientID, "error", err)
			return nil, goerror.NewServer(err)
		}
		rec.Usage = 0
		rec.PeriodStart = period
	}

	if rec.Status != entity.KeyStatusActive {
		return nil, goerror.NewBusiness("API key is paused", goerror.CodeForbidden)
	}

	if rec.Usage >= rec.MonthlyLimit {
		return nil, goerror.NewBusiness("Monthly quota exceeded", goerror.CodeTooManyRequest)
	}

	return &AuthorizeOutput{ClientID: rec.ClientID}, nil
}
