package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("INVOICE_MAX_ATTEMPTS", "")
	t.Setenv("BLOCKED_IPS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "JHY", cfg.InvoicePrefix)
	assert.Equal(t, 5, cfg.InvoiceMaxAttempts)
	assert.Equal(t, 22, cfg.OddHourAfter)
	assert.Equal(t, 6, cfg.OddHourBefore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.BlockedIPs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INVOICE_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_LOCKOUT", "2m")
	t.Setenv("BLOCKED_IPS", " 10.0.0.1 ,,192.168.1.9")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.4")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.InvoiceMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.LoginLockout)
	assert.Equal(t, []string{"10.0.0.1", "192.168.1.9"}, cfg.BlockedIPs)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.4"}, cfg.TrustedProxies)
}
