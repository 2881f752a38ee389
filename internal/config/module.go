package config

import "go.uber.org/fx"

// Module provides *Config parsed from file, environment and command line flags.
var Module = fx.Provide(Load)
