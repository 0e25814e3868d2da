package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/config"
)

func TestApplyFlagsOverridesConfig(t *testing.T) {
	t.Parallel()

	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Set("threads", "4"))
	require.NoError(t, cmd.Flags().Set("output", "/tmp/feed.json"))

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.NoError(t, applyFlags(cmd, &cfg))
	require.Equal(t, 4, cfg.Scraper.Threads)
	require.Equal(t, "/tmp/feed.json", cfg.Output.File)
}

func TestApplyFlagsRejectsNonPositiveThreads(t *testing.T) {
	t.Parallel()

	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Set("threads", "0"))

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Error(t, applyFlags(cmd, &cfg))
}

func TestApplyFlagsLeavesConfigUntouchedByDefault(t *testing.T) {
	t.Parallel()

	cmd := newRunCmd()
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.NoError(t, applyFlags(cmd, &cfg))
	require.Equal(t, 8, cfg.Scraper.Threads)
	require.Equal(t, "products.json", cfg.Output.File)
}

func TestBuildEngineWiresPipeline(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.LLM.Enabled = false
	cfg.Output.SnapshotDir = t.TempDir()

	engine, cleanup, err := buildEngine(cfg, "https://shop.example.com", nil, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, engine)
	cleanup()
}
