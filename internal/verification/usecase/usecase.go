package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
)

// Store key namespaces. The layout is stable across restarts (see entity
// field constants for the record shape).
const (
	apiKeyPrefix      = "apikey:"
	clientIDPrefix    = "clientid:"
	otpPrefix         = "otp:"
	attemptsPrefix    = "attempts:"
	statsGeneratedKey = "stats:otp:generated"
)

const secretPrefix = "sk_"

// Raw secrets are sk_ + 48 hex chars; anything else is rejected before
// touching the store.
var reSecret = regexp.MustCompile(`^sk_[0-9a-f]{48}$`)

type provider interface {
	Send(ctx context.Context, identifier, code string) entity.DeliveryResult
}

type Usecase struct {
	store     kvstore.Store
	provider  provider
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	codeGen   otp.Generator
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	Store      kvstore.Store
	Provider   provider
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	CodeGen    otp.Generator
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:     dep.Store,
		provider:  dep.Provider,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		codeGen:   dep.CodeGen,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func apiKeyKey(digest string) string {
	return apiKeyPrefix + digest
}

func clientIDKey(clientID string) string {
	return clientIDPrefix + clientID
}

func otpKey(identifier string) string {
	return otpPrefix + sanitizeIdentifier(identifier)
}

func attemptsKey(identifier string) string {
	return attemptsPrefix + sanitizeIdentifier(identifier)
}

// sanitizeIdentifier normalizes an identifier for use inside a store key.
// Phone numbers are reduced to digits so "+1 (555) 123-4567" and
// "+15551234567" address the same challenge; emails are lowercased.
func sanitizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if strings.ContainsRune(identifier, '@') {
		return identifier
	}

	var sb strings.Builder
	for _, r := range identifier {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// currentPeriod returns the usage period marker for the clock's current month.
func (s *Usecase) currentPeriod() string {
	return s.clock.Now().UTC().Format(entity.PeriodLayout)
}

// generateSecret returns a new raw API secret: sk_ + 48 hex chars.
func (s *Usecase) generateSecret() (string, error) {
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return secretPrefix + hex.EncodeToString(b[:]), nil
}
