package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fincheck-controlplane/pkg/db/pagination"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	now  func() time.Time

	notification repository.Repository[Notification]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		now:  time.Now,

		notification: repository.ProvideStore[Notification](p.DB),
	}
}

// HandleDispatch stores the notification carried by a notification:dispatch
// task. Malformed payloads are not retried.
func (s *Service) HandleDispatch(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		zap.L().Error("invalid notification payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Type == "" || (p.UserID == "" && !p.IsAdmin) {
		zap.L().Error("notification without recipient or type", zap.String("type", string(p.Type)))
		return fmt.Errorf("notification needs a type and a recipient: %w", asynq.SkipRetry)
	}

	_, err := s.Store(ctx, p)
	return err
}

func (s *Service) Store(ctx context.Context, p Payload) (*Notification, error) {
	n := &Notification{
		ID:        s.node.Generate().String(),
		IsAdmin:   p.IsAdmin,
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		CreatedAt: s.now(),
	}
	if p.UserID != "" {
		uid := p.UserID
		n.UserID = &uid
	}
	if len(p.Data) > 0 {
		b, err := json.Marshal(p.Data)
		if err != nil {
			return nil, err
		}
		n.Data = datatypes.JSON(b)
	}

	if err := s.notification.Create(ctx, n); err != nil {
		zap.L().Error("failed to store notification", zap.String("type", string(p.Type)), zap.Error(err))
		return nil, err
	}
	return n, nil
}

type ListRequest struct {
	UserID  string
	IsAdmin bool
	pagination.Pagination
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]*Notification, *pagination.PageInfo, error) {
	keyset, err := req.Keyset()
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}

	query := &Notification{IsAdmin: req.IsAdmin}
	if !req.IsAdmin {
		uid := req.UserID
		query.UserID = &uid
	}

	rows, err := s.notification.Find(ctx, query, func(db *gorm.DB) *gorm.DB {
		// struct conditions skip zero values
		return keyset(db.Where("is_admin = ?", req.IsAdmin))
	})
	if err != nil {
		return nil, nil, err
	}

	page, info := pagination.BuildCursorPageInfo(rows, req.Size(), func(n *Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, info, nil
}

// MarkRead marks a user's notification read. Marking twice is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	uid := userID
	n, err := s.notification.FindOne(ctx, &Notification{ID: id, UserID: &uid})
	if err != nil {
		return err
	}
	if n == nil {
		return errutil.NotFound("notification not found", nil)
	}
	if n.ReadAt != nil {
		return nil
	}
	return s.notification.Update(ctx, id, map[string]any{"read_at": s.now()})
}
