package provider

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// Log is a development sink: no code leaves the process.
type Log struct{}

// NewLog constructs the logging driver.
func NewLog() *Log {
	return &Log{}
}

// Send logs the delivery and reports success. The code itself is not logged.
func (*Log) Send(ctx context.Context, identifier, code string) entity.DeliveryResult {
	slog.InfoContext(ctx, "verification code issued",
		"identifier", identifier, "code_length", len(code))

	return entity.DeliveryResult{Delivered: true, ProviderRef: "log"}
}
