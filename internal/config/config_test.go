package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "review-jobs", cfg.QueueName)
	require.Equal(t, 3, cfg.MaxReceiveCount)
	require.Equal(t, 60, cfg.VisibilitySeconds)
	require.Equal(t, time.Hour, cfg.CacheTTL())
	require.Equal(t, time.Minute, cfg.Visibility())
	require.False(t, cfg.EnableAI)
	require.False(t, cfg.AllowForceFail)
	require.True(t, cfg.IsDev())
}

func Test_Load_And_AdminEnabled(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=1,p=4$abcd$efgh")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if !cfg.AdminEnabled() {
		t.Fatalf("expected AdminEnabled true")
	}
	if !cfg.IsDev() {
		t.Fatalf("expected IsDev true")
	}
	if cfg.IsProd() {
		t.Fatalf("expected IsProd false")
	}

	// unset admin to ensure AdminEnabled false
	require.NoError(t, os.Unsetenv("ADMIN_USERNAME"))
	require.NoError(t, os.Unsetenv("ADMIN_PASSWORD_HASH"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("reload err: %v", err)
	}
	if cfg.AdminEnabled() {
		t.Fatalf("expected AdminEnabled false")
	}
}

func Test_GetAIBackoffConfig_TestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, initial, maxInterval, mult := cfg.GetAIBackoffConfig()
	require.Equal(t, 2*time.Second, maxElapsed)
	require.Equal(t, 50*time.Millisecond, initial)
	require.Equal(t, 500*time.Millisecond, maxInterval)
	require.Equal(t, 2.0, mult)
}

func Test_GetAIBackoffConfig_ProdEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("AI_BACKOFF_MAX_ELAPSED_TIME", "30s")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, _, _, _ := cfg.GetAIBackoffConfig()
	require.Equal(t, 30*time.Second, maxElapsed)
}

func Test_DurationHelpers(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("VISIBILITY_SECONDS", "45")
	t.Setenv("LONG_POLL_SECONDS", "5")
	t.Setenv("AI_REQUEST_TIMEOUT_MS", "2500")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL())
	require.Equal(t, 45*time.Second, cfg.Visibility())
	require.Equal(t, 5*time.Second, cfg.LongPoll())
	require.Equal(t, 2500*time.Millisecond, cfg.AIRequestTimeout())
}
