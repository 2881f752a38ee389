package clock

import "go.uber.org/fx"

// Module provides the system clock.
var Module = fx.Provide(NewSystem)
