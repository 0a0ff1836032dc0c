package result

import (
	"fincheck-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("result.service",
	fx.Provide(NewRedisRanker),
	fx.Provide(NewService),
)

var HTTP = fx.Module("result.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

var Worker = fx.Module("result.worker",
	fx.Invoke(registerTaskHandler),
)

func registerTaskHandler(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.LeaderboardRebuild, svc.HandleLeaderboardRebuild)
}
