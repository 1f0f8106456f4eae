package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
)

// KeyRevoke destroys an API key: the hash record and the clientid lookup are
// deleted in one atomic batch so no orphaned half remains observable.
func (s *Usecase) KeyRevoke(ctx context.Context, clientID string) error {
	ctx, span := s.startSpan(ctx, "KeyRevoke")
	defer span.End()

	digest, err := s.store.Get(ctx, clientIDKey(clientID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return goerror.NewBusiness("API key not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve client id", "client_id", clientID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.store.Atomic(ctx, func(b kvstore.Batch) {
		b.Delete(apiKeyKey(digest), clientIDKey(clientID))
	}); err != nil {
		slog.ErrorContext(ctx, "failed to revoke api key", "client_id", clientID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
