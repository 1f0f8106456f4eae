package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// Queue hands delivery off to a downstream worker through a message broker.
//
// Delivered here means accepted by the broker; the worker owns the last mile.
type Queue struct {
	pub     messaging.Publisher
	topic   string
	eventID uid.NumberID
}

// NewQueue constructs the broker driver.
func NewQueue(cfg config.Config, pub messaging.Publisher, eventID uid.NumberID) *Queue {
	topic := cfg.GetString("modules.verification.provider.queue.topic")
	if topic == "" {
		topic = "otp.delivery.requested"
	}

	return &Queue{pub: pub, topic: topic, eventID: eventID}
}

type deliveryRequestedEvent struct {
	EventID     int64  `json:"event_id"`
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	RequestedAt string `json:"requested_at"`
}

// Send publishes a delivery request event.
func (q *Queue) Send(ctx context.Context, identifier, code string) entity.DeliveryResult {
	evt := deliveryRequestedEvent{
		EventID:     q.eventID.Generate(),
		Identifier:  identifier,
		Code:        code,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(evt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode delivery event", "error", err)
		return entity.DeliveryResult{}
	}

	res, err := q.pub.Publish(ctx, q.topic, messaging.OutgoingMessage{
		Body:        body,
		Key:         []byte(identifier),
		OrderingKey: identifier,
		Attributes:  map[string]string{"type": "otp.delivery.requested"},
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish delivery event", "error", err)
		return entity.DeliveryResult{}
	}

	ref := res.MessageID
	if ref == "" {
		ref = strconv.FormatInt(evt.EventID, 10)
	}

	return entity.DeliveryResult{Delivered: true, ProviderRef: ref}
}
