package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "salesdesk/internal/log"
)

func capture(t *testing.T, fn func()) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	fn()
	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out), buf.String())
	return out
}

func TestSaleKeysAreTopLevel(t *testing.T) {
	out := capture(t, func() {
		applog.Audit(nil, "sale.create", map[string]any{
			"sale_id": "s-1", "invoice": "TST-1-ABC", "total": "30.00",
		})
	})
	assert.Equal(t, "audit", out["level"])
	assert.Equal(t, "sale.create", out["action"])
	assert.Equal(t, "s-1", out["sale_id"])
	assert.Equal(t, "TST-1-ABC", out["invoice"])
	fields, ok := out["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "30.00", fields["total"])
	assert.NotContains(t, fields, "sale_id")
}

func TestSecretsAreDropped(t *testing.T) {
	out := capture(t, func() {
		applog.Security(nil, "auth.login.fail", map[string]any{"email": "a@b.ht", "password": "hunter2", "token": "t"})
	})
	assert.Equal(t, "warn", out["level"])
	fields := out["fields"].(map[string]any)
	assert.Equal(t, "a@b.ht", fields["email"])
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "token")
}

func TestErrorWithoutFields(t *testing.T) {
	out := capture(t, func() {
		applog.Error(nil, "notify.fail", errors.New("broker down"), nil)
	})
	assert.Equal(t, "error", out["level"])
	assert.Equal(t, "broker down", out["err"])
	assert.NotContains(t, out, "fields")
	assert.NotContains(t, out, "ip")
}
