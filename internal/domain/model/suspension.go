package model

import (
	"fmt"
	"time"
)

// SystemSuspensionReason is the prefix recorded when the abuse monitor suspends an account.
const SystemSuspensionReason = "too many unpaid orders in a short period"

// VelocityReason records how many unpaid orders triggered a suspension.
func VelocityReason(pending int) string {
	return fmt.Sprintf("%s (%d pending)", SystemSuspensionReason, pending)
}

// Suspension restricts an account from purchasing until SuspendedUntil.
type Suspension struct {
	AccountID      string
	Reason         string
	Count          int
	SuspendedUntil time.Time
	UpdatedAt      time.Time
}

// Active reports whether the suspension still applies at now.
func (s Suspension) Active(now time.Time) bool {
	return now.Before(s.SuspendedUntil)
}
