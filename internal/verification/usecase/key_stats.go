package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type KeyStatsOutput struct {
	Key            entity.ApiKey
	TotalGenerated int64
}

// KeyStats reports a key's current record plus its all-time generated count.
func (s *Usecase) KeyStats(ctx context.Context, clientID string) (*KeyStatsOutput, error) {
	ctx, span := s.startSpan(ctx, "KeyStats")
	defer span.End()

	digest, err := s.store.Get(ctx, clientIDKey(clientID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, goerror.NewBusiness("API key not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve client id", "client_id", clientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	fields, err := s.store.HashGetAll(ctx, apiKeyKey(digest))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read api key record", "client_id", clientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	rec, err := entity.ParseApiKey(fields)
	if err != nil {
		slog.WarnContext(ctx, "api key record failed to deserialize", "client_id", clientID, "error", err)
		return nil, goerror.NewBusiness("API key not found", goerror.CodeNotFound)
	}

	stats, err := s.store.HashGetAll(ctx, statsGeneratedKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read generation stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	total, _ := strconv.ParseInt(stats[clientID], 10, 64)

	return &KeyStatsOutput{Key: *rec, TotalGenerated: total}, nil
}
