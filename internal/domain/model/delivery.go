package model

// DeliveryRequest asks the messaging channel to hand a card code to a buyer.
type DeliveryRequest struct {
	AccountID   string `json:"account_id"`
	OrderID     string `json:"order_id"`
	ProductName string `json:"product_name,omitempty"`
	CardCode    string `json:"card_code"`
}

// SuspensionNotice informs a buyer their account was restricted.
type SuspensionNotice struct {
	AccountID      string `json:"account_id"`
	Reason         string `json:"reason"`
	SuspendedUntil string `json:"suspended_until"`
}
