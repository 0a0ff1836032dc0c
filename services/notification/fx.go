package notification

import (
	"fincheck-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(NewDispatcher),
	fx.Provide(NewService),
)

var HTTP = fx.Module("notification.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

// Worker persists dispatched notifications. Only processes running the asynq
// server include it.
var Worker = fx.Module("notification.worker",
	fx.Invoke(registerTaskHandler),
)

func registerTaskHandler(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.NotificationDispatch, svc.HandleDispatch)
}
