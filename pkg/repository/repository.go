package repository

import (
	"context"
	"errors"

	"fincheck-controlplane/pkg/db/option"

	"gorm.io/gorm"
)

// Repository is the generic persistence surface every service builds on.
// FindOne returns (nil, nil) when no row matches.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID string, resource any) error
	BatchCreate(ctx context.Context, resources []*T) error
	Count(ctx context.Context, query *T) (int64, error)

	// Increment applies column = column + delta for every entry in deltas in a
	// single UPDATE statement.
	Increment(ctx context.Context, resourceID string, deltas map[string]any) error
	// UpdateWhere updates the row only when the extra conditions hold and
	// reports how many rows changed.
	UpdateWhere(ctx context.Context, resourceID string, updates map[string]any, conds ...option.Condition) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return s
	}
	return &store[T]{db: tx}
}

func (s *store[T]) query(ctx context.Context, query *T, opts ...option.QueryOption) *gorm.DB {
	var model T
	db := s.db.WithContext(ctx).Model(&model)
	if query != nil {
		db = db.Where(query)
	}
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

func (s *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var out []*T
	if err := s.query(ctx, query, opts...).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var out T
	if err := s.query(ctx, query, opts...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (s *store[T]) Create(ctx context.Context, resource *T) error {
	return s.db.WithContext(ctx).Create(resource).Error
}

func (s *store[T]) Update(ctx context.Context, resourceID string, resource any) error {
	var model T
	return s.db.WithContext(ctx).Model(&model).Where("id = ?", resourceID).Updates(resource).Error
}

func (s *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(resources, 100).Error
}

func (s *store[T]) Count(ctx context.Context, query *T) (int64, error) {
	var n int64
	err := s.query(ctx, query).Count(&n).Error
	return n, err
}

func (s *store[T]) Increment(ctx context.Context, resourceID string, deltas map[string]any) error {
	if len(deltas) == 0 {
		return nil
	}

	updates := make(map[string]any, len(deltas))
	for column, delta := range deltas {
		updates[column] = gorm.Expr(column+" + ?", delta)
	}

	var model T
	res := s.db.WithContext(ctx).Model(&model).Where("id = ?", resourceID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *store[T]) UpdateWhere(ctx context.Context, resourceID string, updates map[string]any, conds ...option.Condition) (int64, error) {
	var model T
	db := s.db.WithContext(ctx).Model(&model).Where("id = ?", resourceID)
	db = option.ApplyOperator(conds...)(db)
	res := db.Updates(updates)
	return res.RowsAffected, res.Error
}
