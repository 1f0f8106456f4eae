package provider

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// SMTP delivers codes to email identifiers.
type SMTP struct {
	mailer  mail.Mail
	subject string
}

// NewSMTP constructs the email driver.
func NewSMTP(cfg config.Config, mailer mail.Mail) *SMTP {
	subject := cfg.GetString("modules.verification.provider.smtp.subject")
	if subject == "" {
		subject = "Your verification code"
	}

	return &SMTP{mailer: mailer, subject: subject}
}

// Send emails the code to the identifier.
func (p *SMTP) Send(ctx context.Context, identifier, code string) entity.DeliveryResult {
	msg := mail.Message{
		To:       []string{identifier},
		Subject:  p.subject,
		TextBody: "Your verification code is " + code + ". Do not share it with anyone.",
	}

	if err := p.mailer.Send(ctx, msg); err != nil {
		slog.WarnContext(ctx, "email delivery failed", "error", err)
		return entity.DeliveryResult{}
	}

	return entity.DeliveryResult{Delivered: true}
}
