package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
)

type OtpVerifyInput struct {
	RawKey     string `validate:"required"`
	Identifier string `validate:"required,identifier"`
	Code       string `validate:"required,numeric"`
}

// OtpVerify checks a submitted code against the live challenge.
//
// The attempts counter is incremented before the code is read, so lockout
// takes precedence over a final correct guess. Lockout and success both clear
// the challenge; comparison is constant-time after an equal-length check.
func (s *Usecase) OtpVerify(ctx context.Context, in OtpVerifyInput) error {
	ctx, span := s.startSpan(ctx, "OtpVerify")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.Authorize(ctx, in.RawKey); err != nil {
		return err
	}

	count, err := s.store.Increment(ctx, attemptsKey(in.Identifier))
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment attempts counter", "error", err)
		return goerror.NewServer(err)
	}

	if count > s.cfg.GetInt64("modules.verification.otp.max_attempts") {
		if err := s.store.Delete(ctx, otpKey(in.Identifier), attemptsKey(in.Identifier)); err != nil {
			slog.ErrorContext(ctx, "failed to clear locked challenge", "error", err)
			return goerror.NewServer(err)
		}
		return goerror.NewBusiness("Too many verification attempts", goerror.CodeTooManyRequest)
	}

	stored, err := s.store.Get(ctx, otpKey(in.Identifier))
	if errors.Is(err, kvstore.ErrNotFound) {
		return goerror.NewBusiness("Verification code has expired", goerror.CodeGone)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read verification code", "error", err)
		return goerror.NewServer(err)
	}

	if len(stored) != len(in.Code) || subtle.ConstantTimeCompare([]byte(stored), []byte(in.Code)) != 1 {
		return goerror.NewBusiness("Invalid verification code", goerror.CodeInvalidFormat)
	}

	if err := s.store.Delete(ctx, otpKey(in.Identifier), attemptsKey(in.Identifier)); err != nil {
		slog.ErrorContext(ctx, "failed to clear verified challenge", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
