package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// HTTPAPI delivers codes through a REST SMS gateway.
//
// Transport errors and 5xx responses are retried with exponential backoff;
// a 4xx response is final. The caller never retries on top of this.
type HTTPAPI struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	sender     string
	maxRetries uint64
}

// NewHTTPAPI constructs the gateway driver from configuration.
func NewHTTPAPI(cfg config.Config) *HTTPAPI {
	timeout := cfg.GetSecond("modules.verification.provider.httpapi.timeout_seconds")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retries := cfg.GetUint64("modules.verification.provider.httpapi.max_retries")
	if retries == 0 {
		retries = 2
	}

	return &HTTPAPI{
		client:     &http.Client{Timeout: timeout},
		baseURL:    cfg.GetString("modules.verification.provider.httpapi.base_url"),
		apiKey:     cfg.GetString("modules.verification.provider.httpapi.api_key"),
		apiSecret:  cfg.GetString("modules.verification.provider.httpapi.api_secret"),
		sender:     cfg.GetString("modules.verification.provider.httpapi.sender"),
		maxRetries: retries,
	}
}

type httpAPIRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Content string `json:"content"`
}

type httpAPIResponse struct {
	MessageID string `json:"message_id"`
}

// Send posts the code to the gateway's message endpoint.
func (p *HTTPAPI) Send(ctx context.Context, identifier, code string) entity.DeliveryResult {
	payload, err := json.Marshal(httpAPIRequest{
		From:    p.sender,
		To:      identifier,
		Content: "Your verification code is " + code,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode gateway payload", "error", err)
		return entity.DeliveryResult{}
	}

	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(200*time.Millisecond))

	var providerRef string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.baseURL+"/3rdparty/v1/messages", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(p.apiKey, p.apiSecret)

		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("provider: gateway returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider: gateway returned %d", resp.StatusCode)
		}

		var body httpAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			providerRef = body.MessageID
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "sms gateway delivery failed", "error", err)
		return entity.DeliveryResult{}
	}

	return entity.DeliveryResult{Delivered: true, ProviderRef: providerRef}
}
