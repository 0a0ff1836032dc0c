package logger

import (
	"testing"

	"fincheck-controlplane/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewReplacesGlobals(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	cfg := &config.Config{AppEnv: "production", AppName: "fincheck"}
	log, err := New(ConfigParams{Cfg: cfg})
	require.NoError(t, err)
	require.NotNil(t, log)
	require.Same(t, log, zap.L())
}
