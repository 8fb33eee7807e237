package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, NotifyQueue, cfg.NotifyMode)
	assert.Equal(t, "accounts", cfg.ESAccountsIndex)
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")
	t.Setenv("NOTIFY_MODE", "Direct")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.PasswordMinLength)
	assert.Equal(t, NotifyDirect, cfg.NotifyMode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("NOTIFY_MODE", "carrier-pigeon")

	cfg := Load()

	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, NotifyQueue, cfg.NotifyMode)
}

func TestLoad_MailSendDisabledForcesLogMode(t *testing.T) {
	t.Setenv("MAIL_SEND_ENABLED", "false")
	t.Setenv("NOTIFY_MODE", "queue")

	assert.Equal(t, NotifyLog, Load().NotifyMode)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "accounts", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/accounts?sslmode=require", cfg.PostgresDSN())
}
