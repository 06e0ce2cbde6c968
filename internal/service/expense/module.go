package expense

import "go.uber.org/fx"

// Module provides the expense service to Fx.
var Module = fx.Provide(NewService)
