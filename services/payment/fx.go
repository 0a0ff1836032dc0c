package payment

import "go.uber.org/fx"

var Module = fx.Module("payment.service",
	fx.Provide(NewService),
)

var HTTP = fx.Module("payment.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
