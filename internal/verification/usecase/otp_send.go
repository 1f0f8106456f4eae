package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OtpSendInput struct {
	RawKey     string `validate:"required"`
	Identifier string `validate:"required,identifier"`
}

type OtpSendOutput struct {
	ReferenceID string
	ExpiresIn   time.Duration
}

// OtpSend issues a new verification challenge for an identifier.
//
// Issuing overwrites any prior challenge for the same identifier. Code and
// attempts counter are written as two independent TTL-bearing writes; the
// store owns expiry. A delivery failure leaves the challenge in place so a
// retry by the caller simply overwrites it.
func (s *Usecase) OtpSend(ctx context.Context, in OtpSendInput) (*OtpSendOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpSend")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.Authorize(ctx, in.RawKey)
	if err != nil {
		return nil, err
	}

	code, err := s.codeGen.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetSecond("modules.verification.otp.expiry_seconds")

	if err := s.store.SetWithTTL(ctx, otpKey(in.Identifier), code, expiry); err != nil {
		slog.ErrorContext(ctx, "failed to store verification code", "client_id", auth.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := s.store.SetWithTTL(ctx, attemptsKey(in.Identifier), "0", expiry); err != nil {
		slog.ErrorContext(ctx, "failed to reset attempts counter", "client_id", auth.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if res := s.provider.Send(ctx, in.Identifier, code); !res.Delivered {
		slog.WarnContext(ctx, "verification code delivery failed", "client_id", auth.ClientID)
		return nil, goerror.NewBusiness("Failed to deliver verification code", goerror.CodeUnavailable)
	}

	if err := s.ChargeUsage(ctx, auth.ClientID); err != nil {
		return nil, err
	}

	return &OtpSendOutput{
		ReferenceID: s.uuid.Generate(),
		ExpiresIn:   expiry,
	}, nil
}
