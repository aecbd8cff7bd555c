package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "APP_ENV", "STORE_DRIVER", "SUBMISSION_POLICY", "QUESTION_SET_VERSION",
		"PORT", "RECENT_LIMIT", "JWT_EXPIRES_IN", "ONBOARDING_REQUIRE_AUTH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, PolicyUpsert, cfg.SubmissionPolicy)
	assert.Equal(t, "trading-v1", cfg.QuestionSetVersion)
	assert.Equal(t, "9091", cfg.Port)
	assert.Equal(t, 50, cfg.RecentLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTAccessExpiry)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsUnknownPolicyAndDriver(t *testing.T) {
	t.Setenv("SUBMISSION_POLICY", "merge")
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBMISSION_POLICY")
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("RECENT_LIMIT", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "parse env:")
}

func TestValidateProductionNeedsSecret(t *testing.T) {
	cfg := &Config{
		Environment:      "production",
		StoreDriver:      DriverMemory,
		SubmissionPolicy: PolicyInsert,
		RecentLimit:      50,
	}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
