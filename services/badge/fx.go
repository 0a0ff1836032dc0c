package badge

import "go.uber.org/fx"

var Module = fx.Module("badge.service",
	fx.Provide(NewEvaluator),
	fx.Provide(NewService),
)

var HTTP = fx.Module("badge.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
