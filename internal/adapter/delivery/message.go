package delivery

import (
	"encoding/json"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// Message kinds published to the messaging channel.
const (
	KindCardDelivery     = "card_delivery"
	KindSuspensionNotice = "suspension_notice"
)

// Message is the envelope consumed by the buyer-facing messaging channel.
type Message struct {
	Kind     string                  `json:"kind"`
	Delivery *model.DeliveryRequest  `json:"delivery,omitempty"`
	Notice   *model.SuspensionNotice `json:"notice,omitempty"`
}

// Key routes all messages of one account to the same partition.
func (m Message) Key() string {
	switch {
	case m.Delivery != nil:
		return m.Delivery.AccountID
	case m.Notice != nil:
		return m.Notice.AccountID
	}
	return ""
}

// ID identifies the message for consumers that dedupe.
func (m Message) ID() string {
	if m.Delivery != nil {
		return m.Kind + ":" + m.Delivery.OrderID
	}
	if m.Notice != nil {
		return m.Kind + ":" + m.Notice.AccountID + ":" + m.Notice.SuspendedUntil
	}
	return m.Kind
}

func deliveryMessage(req model.DeliveryRequest) Message {
	return Message{Kind: KindCardDelivery, Delivery: &req}
}

func noticeMessage(n model.SuspensionNotice) Message {
	return Message{Kind: KindSuspensionNotice, Notice: &n}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
