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

type KeyUpdateInput struct {
	ClientID     string `validate:"required,clientid"`
	Status       *entity.KeyStatus
	MonthlyLimit *int64 `validate:"omitempty,gte=0"`
}

// KeyUpdate partially updates an API key record: only supplied fields change.
func (s *Usecase) KeyUpdate(ctx context.Context, in KeyUpdateInput) error {
	ctx, span := s.startSpan(ctx, "KeyUpdate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.Status != nil && *in.Status == entity.KeyStatusUnknown {
		return goerror.NewBusiness("Status must be active or paused", goerror.CodeInvalidFormat)
	}

	digest, err := s.store.Get(ctx, clientIDKey(in.ClientID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return goerror.NewBusiness("API key not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve client id", "client_id", in.ClientID, "error", err)
		return goerror.NewServer(err)
	}

	fields := map[string]string{}
	if in.Status != nil {
		fields[entity.FieldStatus] = in.Status.String()
	}
	if in.MonthlyLimit != nil {
		fields[entity.FieldMonthlyLimit] = strconv.FormatInt(*in.MonthlyLimit, 10)
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.store.HashSet(ctx, apiKeyKey(digest), fields); err != nil {
		slog.ErrorContext(ctx, "failed to update api key record", "client_id", in.ClientID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
