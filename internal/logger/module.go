package logger

import "go.uber.org/fx"

// Module provides the JSON slog logger configured by LogLevel.
var Module = fx.Provide(New)
