package model

// ReconcileReport counts what a reconciliation pass repaired.
type ReconcileReport struct {
	ReleasedFromExpired  int `json:"released_from_expired"`
	ClearedExpiredOrders int `json:"cleared_expired_orders"`
	ResetOrphans         int `json:"reset_orphans"`
	ReleasedExtras       int `json:"released_extras"`
	Repointed            int `json:"repointed"`
}

// Total returns the number of repaired records.
func (r ReconcileReport) Total() int {
	return r.ReleasedFromExpired + r.ClearedExpiredOrders + r.ResetOrphans + r.ReleasedExtras + r.Repointed
}
