// Package verification is the domain module: API key quotas plus the OTP
// challenge lifecycle, exposed over HTTP.
package verification

import (
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/inbound"
	"github.com/shandysiswandi/otpgate/internal/verification/outbound/provider"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

type Dependency struct {
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	codeGen, err := otp.NewNumericCode(dep.Config.GetInt("modules.verification.otp.length"))
	if err != nil {
		return err
	}

	prov, err := provider.New(dep.Config.GetString("modules.verification.provider.driver"), provider.Options{
		Config:    dep.Config,
		Messaging: dep.Messaging,
		Mail:      dep.Mail,
		EventID:   dep.UID,
	})
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Store:      kvstore.NewRedis(dep.CacheConn),
		Provider:   prov,
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		CodeGen:    codeGen,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	generateLimit := router.MiddlewareRateLimit(ratelimit.NewFixedWindow(
		dep.CacheConn, "rl:generate:",
		dep.Config.GetInt64("modules.verification.ratelimit.generate.limit"),
		dep.Config.GetMinute("modules.verification.ratelimit.generate.window_minutes"),
	))
	verifyLimit := router.MiddlewareRateLimit(ratelimit.NewFixedWindow(
		dep.CacheConn, "rl:verify:",
		dep.Config.GetInt64("modules.verification.ratelimit.verify.limit"),
		dep.Config.GetMinute("modules.verification.ratelimit.verify.window_minutes"),
	))

	inbound.RegisterHTTPEndpoint(dep.Router, uc, generateLimit, verifyLimit)

	return nil
}
