package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "personstore_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "personstore_test", cfg.MongoDB.Database)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "6379", cfg.Redis.Port)
	require.Equal(t, "5020", cfg.Server.Port)
	require.False(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_FallsBackToMongoDBURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
}

func TestLoadConfig_MissingURIIsNotFatal(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.MongoDB.URI)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("MONGODB_TIMEOUT", "0")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("MONGODB_TIMEOUT", "5")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "0")
	_, err = LoadConfig()
	require.Error(t, err)
}
