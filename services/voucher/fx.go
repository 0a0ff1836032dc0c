package voucher

import "go.uber.org/fx"

var Module = fx.Module("voucher.service",
	fx.Provide(NewService),
)

var HTTP = fx.Module("voucher.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
