package notification

import (
	"context"

	"fincheck-controlplane/pkg/task"
	"fincheck-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const maxDispatchRetry = 5

// Dispatcher hands notifications to the task queue. Delivery problems are
// logged and never returned: callers have already committed their state.
type Dispatcher struct {
	enq task.Enqueuer
}

func NewDispatcher(enq task.Enqueuer) *Dispatcher {
	return &Dispatcher{enq: enq}
}

func (d *Dispatcher) Notify(ctx context.Context, payloads ...Payload) {
	for _, p := range payloads {
		logger := zap.L().With(
			zap.String("type", string(p.Type)),
			zap.String("user_id", p.UserID),
			zap.Bool("is_admin", p.IsAdmin),
		)

		t, err := task.NewJSONTask(taskname.NotificationDispatch, p)
		if err != nil {
			logger.Error("failed to build notification task", zap.Error(err))
			continue
		}

		if _, err := d.enq.Enqueue(t, asynq.Queue(taskname.QueueDefault), asynq.MaxRetry(maxDispatchRetry)); err != nil {
			logger.Error("failed to enqueue notification", zap.Error(err))
			continue
		}
		logger.Debug("notification enqueued")
	}
}
