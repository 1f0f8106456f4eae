package inbound

import "net/http"

type GenerateRequest struct {
	Identifier string `json:"identifier"`
}

type GenerateResponse struct {
	ReferenceID      string `json:"reference_id"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

func (GenerateResponse) Message() string {
	return "Verification code sent."
}

func (GenerateResponse) StatusCode() int {
	return http.StatusAccepted
}

type VerifyRequest struct {
	Identifier string `json:"identifier"`
	Otp        string `json:"otp"`
}

type VerifyResponse struct{}

func (VerifyResponse) Message() string {
	return "Verification successful."
}

type KeyCreateRequest struct {
	ClientID     string `json:"client_id"`
	MonthlyLimit int64  `json:"monthly_limit"`
}

type KeyCreateResponse struct {
	ClientID string `json:"client_id"`
	ApiKey   string `json:"api_key"`
}

func (KeyCreateResponse) Message() string {
	return "API key created. Store it now; it will not be shown again."
}

func (KeyCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type KeyUpdateRequest struct {
	Status       *string `json:"status,omitempty"`
	MonthlyLimit *int64  `json:"monthly_limit,omitempty"`
}

type KeyUpdateResponse struct{}

func (KeyUpdateResponse) Message() string {
	return "API key updated."
}

type KeyResponse struct {
	ClientID     string `json:"client_id"`
	Status       string `json:"status"`
	MonthlyLimit int64  `json:"monthly_limit"`
	Usage        int64  `json:"usage"`
	PeriodStart  string `json:"period_start"`
	CreatedAt    string `json:"created_at"`
}

type KeyListResponse struct {
	Keys []KeyResponse `json:"keys"`
}

type KeyStatsResponse struct {
	ClientID       string `json:"client_id"`
	Status         string `json:"status"`
	MonthlyLimit   int64  `json:"monthly_limit"`
	Usage          int64  `json:"usage"`
	PeriodStart    string `json:"period_start"`
	CreatedAt      string `json:"created_at"`
	TotalGenerated int64  `json:"total_generated"`
}
