package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCliConfigReadsTransitionEnvVars(t *testing.T) {
	t.Setenv("SWWW_TRANSITION", "wave")
	t.Setenv("SWWW_TRANSITION_FPS", "60")
	t.Setenv("SWWW_TRANSITION_STEP", "90")
	t.Setenv("SWWW_TRANSITION_DURATION", "2.5")
	t.Setenv("SWWW_TRANSITION_BEZIER", "0.1,0.2,0.3,0.4")
	t.Setenv("SWWW_TRANSITION_POS", "center")

	cfg, err := LoadCliConfig()
	require.NoError(t, err)
	assert.Equal(t, "wave", cfg.Transition.Type)
	assert.Equal(t, "60", cfg.Transition.FPS)
	assert.Equal(t, "90", cfg.Transition.Step)
	assert.Equal(t, "2.5", cfg.Transition.Duration)
	assert.Equal(t, "0.1,0.2,0.3,0.4", cfg.Transition.Bezier)
	assert.Equal(t, "center", cfg.Transition.Pos)
}

func TestLoadCliConfigDefaultsToEmptyWhenUnset(t *testing.T) {
	cfg, err := LoadCliConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Transition.Type)
}

func TestLoadDaemonConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadDaemonConfig()
	require.NoError(t, err)
	assert.False(t, cfg.NoCache)
	assert.Equal(t, "background", cfg.Layer)
}

func TestLoadDaemonConfigReadsOverrides(t *testing.T) {
	t.Setenv("DRIFTWALLD_FORMAT", "xbgr")
	t.Setenv("DRIFTWALLD_NO_CACHE", "true")
	t.Setenv("DRIFTWALLD_LAYER", "bottom")
	t.Setenv("DRIFTWALLD_NAMESPACE", "laptop")

	cfg, err := LoadDaemonConfig()
	require.NoError(t, err)
	assert.Equal(t, "xbgr", cfg.Format)
	assert.True(t, cfg.NoCache)
	assert.Equal(t, "bottom", cfg.Layer)
	assert.Equal(t, "laptop", cfg.Namespace)
}
