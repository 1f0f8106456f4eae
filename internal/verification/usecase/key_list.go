package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type KeyListOutput struct {
	Keys []entity.ApiKey
}

// KeyList enumerates all live API key records.
//
// The scan is eventually consistent with concurrent writes; records that fail
// to deserialize are skipped, not surfaced.
func (s *Usecase) KeyList(ctx context.Context) (*KeyListOutput, error) {
	ctx, span := s.startSpan(ctx, "KeyList")
	defer span.End()

	keys, err := s.store.ScanKeys(ctx, apiKeyPrefix+"*")
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan api key records", "error", err)
		return nil, goerror.NewServer(err)
	}

	records := make([]entity.ApiKey, 0, len(keys))
	for _, key := range keys {
		fields, err := s.store.HashGetAll(ctx, key)
		if err != nil {
			slog.ErrorContext(ctx, "failed to read api key record", "key", key, "error", err)
			return nil, goerror.NewServer(err)
		}
		if len(fields) == 0 {
			continue // expired or deleted between scan and read
		}

		rec, err := entity.ParseApiKey(fields)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed api key record", "key", key, "error", err)
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ClientID < records[j].ClientID
	})

	return &KeyListOutput{Keys: records}, nil
}
