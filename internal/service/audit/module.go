package audit

import "go.uber.org/fx"

// Module provides the audit service to Fx.
var Module = fx.Provide(NewService)
