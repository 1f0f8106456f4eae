package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type KeyCreateInput struct {
	ClientID     string `validate:"required,clientid"`
	MonthlyLimit int64  `validate:"gte=0"`
}

type KeyCreateOutput struct {
	ClientID string
	RawKey   string
}

// KeyCreate issues a new API key for a client.
//
// The raw secret is returned exactly once and never persisted; only its
// digest keys the stored record. The record and the clientid lookup are
// written in one atomic batch so readers see both or neither.
func (s *Usecase) KeyCreate(ctx context.Context, in KeyCreateInput) (*KeyCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "KeyCreate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.store.Get(ctx, clientIDKey(in.ClientID))
	if err == nil {
		return nil, goerror.NewBusiness("Client ID already has a live key", goerror.CodeConflict)
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to check client id lookup", "client_id", in.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	raw, err := s.generateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate api secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest api secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.ApiKey{
		ClientID:     in.ClientID,
		Status:       entity.KeyStatusActive,
		MonthlyLimit: in.MonthlyLimit,
		Usage:        0,
		PeriodStart:  s.currentPeriod(),
		CreatedAt:    s.clock.Now().UTC(),
	}

	if err := s.store.Atomic(ctx, func(b kvstore.Batch) {
		b.HashSet(apiKeyKey(string(digest)), rec.Fields())
		b.Set(clientIDKey(in.ClientID), string(digest), 0)
	}); err != nil {
		slog.ErrorContext(ctx, "failed to persist api key record", "client_id", in.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &KeyCreateOutput{ClientID: in.ClientID, RawKey: raw}, nil
}
