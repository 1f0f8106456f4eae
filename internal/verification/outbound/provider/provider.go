// Package provider implements the delivery capability: transports that carry
// a one-time code to an end-user identifier.
//
// Ordinary delivery failures are reported as a value (DeliveryResult), never
// as an error; retry policy is internal to each driver.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

const (
	// DriverHTTPAPI sends through a REST SMS gateway.
	DriverHTTPAPI = "httpapi"
	// DriverQueue publishes a delivery request to a message broker.
	DriverQueue = "queue"
	// DriverSMTP sends the code by email.
	DriverSMTP = "smtp"
	// DriverLog logs instead of delivering; development only.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported delivery driver.
var ErrUnknownDriver = errors.New("provider: unknown driver")

// Provider delivers a code to an identifier.
type Provider interface {
	Send(ctx context.Context, identifier, code string) entity.DeliveryResult
}

// Options groups the collaborators a driver may need.
type Options struct {
	Config    config.Config
	Messaging messaging.Publisher
	Mail      mail.Mail
	EventID   uid.NumberID
}

// New constructs a Provider by driver name.
func New(driver string, opts Options) (Provider, error) {
	switch strings.TrimSpace(driver) {
	case DriverHTTPAPI:
		return NewHTTPAPI(opts.Config), nil
	case DriverQueue:
		return NewQueue(opts.Config, opts.Messaging, opts.EventID), nil
	case DriverSMTP:
		return NewSMTP(opts.Config, opts.Mail), nil
	case DriverLog:
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
