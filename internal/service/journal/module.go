package journal

import "go.uber.org/fx"

// Module provides the journal service to Fx.
var Module = fx.Provide(NewService)
