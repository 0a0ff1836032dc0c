package schema

import (
	"testing"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestMigrateCreatesEveryTable(t *testing.T) {
	conn := testutil.NewTestDB(t)
	cfg := &config.Config{}
	cfg.Database.AutoMigrate = true

	require.NoError(t, Migrate(cfg, conn))
	for _, m := range Models() {
		require.True(t, conn.Migrator().HasTable(m), "%T", m)
	}
}

func TestMigrateDisabled(t *testing.T) {
	conn := testutil.NewTestDB(t)
	require.NoError(t, Migrate(&config.Config{}, conn))
	require.False(t, conn.Migrator().HasTable(Models()[0]))
}
