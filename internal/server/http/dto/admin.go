package dto

// CleanupResponse reports a manual reclamation pass.
type CleanupResponse struct {
	Expired int `json:"expired"`
}

// FulfillResponse reports a manual fulfilment.
type FulfillResponse struct {
	OrderID string `json:"order_id"`
	Outcome string `json:"outcome"`
}

// UnbanResponse reports whether a suspension record was removed.
type UnbanResponse struct {
	AccountID string `json:"account_id"`
	Removed   bool   `json:"removed"`
}

// StatsResponse is an inventory snapshot.
type StatsResponse struct {
	CardsTotal     int64            `json:"cards_total"`
	CardsUsed      int64            `json:"cards_used"`
	CardsAvailable int64            `json:"cards_available"`
	Orders         map[string]int64 `json:"orders"`
}
