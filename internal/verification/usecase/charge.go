package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// ChargeUsage records one issuance against a client's quota and its global
// statistics counter, in a single atomic batch.
//
// An unknown client is a silent no-op: charging is bookkeeping, the
// authorization gate already ran.
func (s *Usecase) ChargeUsage(ctx context.Context, clientID string) error {
	ctx, span := s.startSpan(ctx, "ChargeUsage")
	defer span.End()

	digest, err := s.store.Get(ctx, clientIDKey(clientID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve client id for charge", "client_id", clientID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.store.Atomic(ctx, func(b kvstore.Batch) {
		b.HashIncrement(apiKeyKey(digest), entity.FieldUsage, 1)
		b.HashIncrement(statsGeneratedKey, clientID, 1)
	}); err != nil {
		slog.ErrorContext(ctx, "failed to charge usage", "client_id", clientID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
