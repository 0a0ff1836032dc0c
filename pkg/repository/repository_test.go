package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"fincheck-controlplane/pkg/db/option"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type counter struct {
	ID    string `gorm:"column:id;primaryKey"`
	Name  string `gorm:"column:name"`
	Hits  int64  `gorm:"column:hits;not null;default:0"`
	Limit int64  `gorm:"column:limit_hits;not null;default:0"`
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&counter{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestFindOneReturnsNilWhenMissing(t *testing.T) {
	repo := ProvideStore[counter](newDB(t))

	got, err := repo.FindOne(context.Background(), &counter{ID: "missing"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestIncrementIsAtomicUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	repo := ProvideStore[counter](newDB(t))
	require.NoError(t, repo.Create(ctx, &counter{ID: "c1", Name: "one"}))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Increment(ctx, "c1", map[string]any{"hits": 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.FindOne(ctx, &counter{ID: "c1"})
	require.NoError(t, err)
	require.Equal(t, int64(20), got.Hits)
}

func TestIncrementMissingRow(t *testing.T) {
	repo := ProvideStore[counter](newDB(t))
	err := repo.Increment(context.Background(), "nope", map[string]any{"hits": 1})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateWhereGuardsCondition(t *testing.T) {
	ctx := context.Background()
	repo := ProvideStore[counter](newDB(t))
	require.NoError(t, repo.Create(ctx, &counter{ID: "c1", Hits: 1, Limit: 2}))

	cond := option.Condition{Field: "hits", Operator: option.LT, Value: 2}

	n, err := repo.UpdateWhere(ctx, "c1", map[string]any{"hits": gorm.Expr("hits + 1")}, cond)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = repo.UpdateWhere(ctx, "c1", map[string]any{"hits": gorm.Expr("hits + 1")}, cond)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestFindWithSortAndCount(t *testing.T) {
	ctx := context.Background()
	repo := ProvideStore[counter](newDB(t))
	require.NoError(t, repo.BatchCreate(ctx, []*counter{
		{ID: "a", Name: "x", Hits: 3},
		{ID: "b", Name: "x", Hits: 1},
		{ID: "c", Name: "y", Hits: 2},
	}))

	rows, err := repo.Find(ctx, &counter{Name: "x"}, option.WithSortBy(option.QuerySortBy{SortBy: "hits", OrderBy: "asc"}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "b", rows[0].ID)

	n, err := repo.Count(ctx, &counter{Name: "x"})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
