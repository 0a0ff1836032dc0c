package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCheckWithDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	res := ProvideHealth(HealthParams{DB: db}).Check(context.Background())
	require.Equal(t, StatusHealthy, res.Status)
	require.Len(t, res.Deps, 1)
	require.Equal(t, "sqlite", res.Deps[0].Name)
}

func TestCheckDatabaseClosed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	res := ProvideHealth(HealthParams{DB: db}).Check(context.Background())
	require.Equal(t, StatusUnhealthy, res.Status)
}
