package auth

import "time"

// Verifier authenticates raw webhook payloads against their signature header.
type Verifier interface {
	Verify(payload []byte, header string) error
	Name() string
}

type Options struct {
	Tolerance time.Duration
	Now       func() time.Time
}
