package model

// Payment event types understood by the processor.
const (
	EventCheckoutCompleted = "checkout.session.completed"
)

// Metadata keys attached to checkout sessions.
const (
	MetadataAccountID = "userId"
	MetadataOrderID   = "orderId"
)

// PaymentEvent is an inbound notification from the payment gateway.
type PaymentEvent struct {
	ID         string
	Type       string
	SessionRef string
	Metadata   map[string]string
}

// OrderID returns the order reference embedded in metadata.
func (e PaymentEvent) OrderID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataOrderID]
}

// CheckoutRequest describes a checkout session to open at the gateway.
type CheckoutRequest struct {
	OrderID     string
	AccountID   string
	ProductName string
	Amount      int64
}

// CheckoutSession is returned by the gateway for a created session.
type CheckoutSession struct {
	Ref string
	URL string
}

// Outcome classifies how a payment event was handled.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeRepaired       Outcome = "repaired"
	OutcomeLatePayment    Outcome = "late_payment"
	OutcomeOutOfStock     Outcome = "out_of_stock"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeResent         Outcome = "resent"
)
