package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for OTP issuance and key administration.
type HTTPEndpoint struct {
	uc uc
}

// Generate issues and delivers a verification code.
// @Summary Generate verification code
// @Description Issues a one-time code for the identifier and delivers it through the configured provider.
// @Tags Verification
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key"
// @Param request body GenerateRequest true "Generate payload"
// @Success 202 {object} router.successResponse{data=GenerateResponse} "Code accepted for delivery"
// @Failure 400 {object} router.errorResponse "Invalid request body or API key format"
// @Failure 401 {object} router.errorResponse "Unknown API key"
// @Failure 403 {object} router.errorResponse "API key paused"
// @Failure 429 {object} router.errorResponse "Quota exceeded or rate limited"
// @Failure 503 {object} router.errorResponse "Delivery failed"
// @Router /api/v1/otp/generate [post]
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpSend(r.Context(), usecase.OtpSendInput{
		RawKey:     r.Header.Get("X-API-Key"),
		Identifier: req.Identifier,
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		ReferenceID:      resp.ReferenceID,
		ExpiresInSeconds: int64(resp.ExpiresIn / time.Second),
	}, nil
}

// Verify checks a submitted verification code.
// @Summary Verify code
// @Description Verifies a submitted code against the live challenge for the identifier.
// @Tags Verification
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key"
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse "Code verified"
// @Failure 400 {object} router.errorResponse "Invalid code"
// @Failure 410 {object} router.errorResponse "Code expired or never issued"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.OtpVerify(r.Context(), usecase.OtpVerifyInput{
		RawKey:     r.Header.Get("X-API-Key"),
		Identifier: req.Identifier,
		Code:       req.Otp,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{}, nil
}

// KeyCreate provisions a new API key.
// @Summary Create API key
// @Description Creates an API key for a client; the raw secret is returned once.
// @Tags Administration
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param request body KeyCreateRequest true "Key payload"
// @Success 201 {object} router.successResponse{data=KeyCreateResponse} "Key created"
// @Failure 409 {object} router.errorResponse "Client ID already exists"
// @Router /api/v1/admin/keys [post]
func (h *HTTPEndpoint) KeyCreate(r *router.Request) (any, error) {
	var req KeyCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.KeyCreate(r.Context(), usecase.KeyCreateInput{
		ClientID:     req.ClientID,
		MonthlyLimit: req.MonthlyLimit,
	})
	if err != nil {
		return nil, err
	}

	return KeyCreateResponse{ClientID: resp.ClientID, ApiKey: resp.RawKey}, nil
}

// KeyList enumerates all API keys.
// @Summary List API keys
// @Tags Administration
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} router.successResponse{data=KeyListResponse} "Keys"
// @Router /api/v1/admin/keys [get]
func (h *HTTPEndpoint) KeyList(r *router.Request) (any, error) {
	resp, err := h.uc.KeyList(r.Context())
	if err != nil {
		return nil, err
	}

	return KeyListResponse{
		Keys: lo.Map(resp.Keys, func(k entity.ApiKey, _ int) KeyResponse {
			return KeyResponse{
				ClientID:     k.ClientID,
				Status:       k.Status.String(),
				MonthlyLimit: k.MonthlyLimit,
				Usage:        k.Usage,
				PeriodStart:  k.PeriodStart,
				CreatedAt:    k.CreatedAt.Format(time.RFC3339),
			}
		}),
	}, nil
}

// KeyUpdate partially updates an API key.
// @Summary Update API key
// @Description Updates status and/or monthly limit of an API key.
// @Tags Administration
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param client_id path string true "Client ID"
// @Param request body KeyUpdateRequest true "Update payload"
// @Success 200 {object} router.successResponse "Key updated"
// @Failure 404 {object} router.errorResponse "Unknown client ID"
// @Router /api/v1/admin/keys/{client_id} [patch]
func (h *HTTPEndpoint) KeyUpdate(r *router.Request) (any, error) {
	var req KeyUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.KeyUpdateInput{
		ClientID:     r.GetParam("client_id"),
		MonthlyLimit: req.MonthlyLimit,
	}
	if req.Status != nil {
		st := entity.KeyStatusFromString(*req.Status)
		in.Status = &st
	}

	if err := h.uc.KeyUpdate(r.Context(), in); err != nil {
		return nil, err
	}

	return KeyUpdateResponse{}, nil
}

// KeyRevoke destroys an API key.
// @Summary Revoke API key
// @Tags Administration
// @Param X-Admin-Key header string true "Admin key"
// @Param client_id path string true "Client ID"
// @Success 204 "Key revoked"
// @Failure 404 {object} router.errorResponse "Unknown client ID"
// @Router /api/v1/admin/keys/{client_id} [delete]
func (h *HTTPEndpoint) KeyRevoke(r *router.Request) (any, error) {
	if err := h.uc.KeyRevoke(r.Context(), r.GetParam("client_id")); err != nil {
		return nil, err
	}

	return nil, nil
}

// KeyStats reports usage statistics for an API key.
// @Summary API key statistics
// @Tags Administration
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param client_id path string true "Client ID"
// @Success 200 {object} router.successResponse{data=KeyStatsResponse} "Statistics"
// @Failure 404 {object} router.errorResponse "Unknown client ID"
// @Router /api/v1/admin/keys/{client_id}/stats [get]
func (h *HTTPEndpoint) KeyStats(r *router.Request) (any, error) {
	resp, err := h.uc.KeyStats(r.Context(), r.GetParam("client_id"))
	if err != nil {
		return nil, err
	}

	return KeyStatsResponse{
		ClientID:       resp.Key.ClientID,
		Status:         resp.Key.Status.String(),
		MonthlyLimit:   resp.Key.MonthlyLimit,
		Usage:          resp.Key.Usage,
		PeriodStart:    resp.Key.PeriodStart,
		CreatedAt:      resp.Key.CreatedAt.Format(time.RFC3339),
		TotalGenerated: resp.TotalGenerated,
	}, nil
}
