package scoring

import "go.uber.org/fx"

var HTTP = fx.Module("scoring.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
