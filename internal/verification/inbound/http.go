package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

type uc interface {
	OtpSend(ctx context.Context, in usecase.OtpSendInput) (*usecase.OtpSendOutput, error)
	OtpVerify(ctx context.Context, in usecase.OtpVerifyInput) error

	KeyCreate(ctx context.Context, in usecase.KeyCreateInput) (*usecase.KeyCreateOutput, error)
	KeyUpdate(ctx context.Context, in usecase.KeyUpdateInput) error
	KeyRevoke(ctx context.Context, clientID string) error
	KeyList(ctx context.Context) (*usecase.KeyListOutput, error)
	KeyStats(ctx context.Context, clientID string) (*usecase.KeyStatsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, generateLimit, verifyLimit router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	// OTP issuance & verification (X-API-Key)
	r.POST("/api/v1/otp/generate", end.Generate, generateLimit)
	r.POST("/api/v1/otp/verify", end.Verify, verifyLimit)

	// Key administration (X-Admin-Key, enforced by router middleware)
	r.POST("/api/v1/admin/keys", end.KeyCreate)
	r.GET("/api/v1/admin/keys", end.KeyList)
	r.PATCH("/api/v1/admin/keys/:client_id", end.KeyUpdate)
	r.DELETE("/api/v1/admin/keys/:client_id", end.KeyRevoke)
	r.GET("/api/v1/admin/keys/:client_id/stats", end.KeyStats)
}
