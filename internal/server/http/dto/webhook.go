package dto

import "github.com/polkiloo/cardshop/internal/domain/model"

// WebhookEvent mirrors the gateway's event envelope.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ToModel converts the envelope into a payment event.
func (e WebhookEvent) ToModel() model.PaymentEvent {
	return model.PaymentEvent{
		ID:         e.ID,
		Type:       e.Type,
		SessionRef: e.Data.Object.ID,
		Metadata:   e.Data.Object.Metadata,
	}
}

// WebhookAck acknowledges a webhook so the gateway stops retrying.
type WebhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}
