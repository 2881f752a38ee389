package router

import "go.uber.org/fx"

// Module provides the gin engine serving the shop API, webhooks and checkout pages.
var Module = fx.Provide(Setup)
