package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.json")
	payload := `{
  "providers": [
    {"name": "fluxopay", "kind": "checkout", "base_url": "https://api.fluxopay.com/v1", "webhook_token": "secret-a", "enabled": true},
    {"name": "axionpay", "kind": "pix", "base_url": "http://localhost:3060", "webhook_token": "secret-b", "enabled": true}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	reg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.True(t, reg.Exists("fluxopay"))
	require.True(t, reg.Exists("axionpay"))
	require.Len(t, reg.All(), 2)

	cfg := reg.Get("fluxopay")
	require.NotNil(t, cfg)
	require.Equal(t, "checkout", cfg.Kind)
}

func TestLoadFromFileMissingIsEmpty(t *testing.T) {
	reg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Empty(t, reg.All())
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestVerifyWebhookToken(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Config{Name: "fluxopay", WebhookToken: "secret"})
	reg.Register(&Config{Name: "tokenless"})

	require.True(t, reg.VerifyWebhookToken("fluxopay", "secret"))
	require.False(t, reg.VerifyWebhookToken("fluxopay", "wrong"))
	require.False(t, reg.VerifyWebhookToken("tokenless", ""))
	require.False(t, reg.VerifyWebhookToken("unknown", "secret"))
}
