package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/yndd/dinesync/store"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dinesync.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	assert.Equal(t, err, nil)
	assert.Equal(t, c.Store.Backend, store.BackendJSON)
	assert.Equal(t, c.Broadcast.Kind, BroadcastNone)
	assert.Equal(t, c.Sync.Channel, "restaurant-sync")
	assert.Equal(t, c.Sync.FocusDelay, 100*time.Millisecond)
	assert.Equal(t, len(c.Sync.Keys), 5)
}

func TestFile(t *testing.T) {
	p := writeFile(t, `
store:
  backend: nats
  nats:
    address: nats://localhost:4222
    bucket: tables
broadcast:
  kind: nats
  address: nats://localhost:4222
sync:
  resync-interval: 30s
  keys: [menu_items]
http:
  addr: ":9090"
seed: true
`)
	c, err := Load(p)
	assert.Equal(t, err, nil)
	assert.Equal(t, c.Store.Backend, store.BackendNATS)
	assert.Equal(t, c.Store.NATS.Bucket, "tables")
	assert.Equal(t, c.Broadcast.Kind, BroadcastNATS)
	assert.Equal(t, c.Broadcast.MaxAge, time.Minute)
	assert.Equal(t, c.Sync.ResyncInterval, 30*time.Second)
	assert.Equal(t, c.Sync.Keys, []string{"menu_items"})
	assert.Equal(t, c.HTTP.Addr, ":9090")
	assert.Equal(t, c.Seed, true)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, "store:\n  backend: sqlite\n")
	t.Setenv("DINESYNC_STORE_BACKEND", "bolt")
	t.Setenv("DINESYNC_NATS_ADDRESS", "nats://nats:4222")
	t.Setenv("DINESYNC_ALLOWED_ORIGINS", "http://a,http://b")
	t.Setenv("DINESYNC_RESYNC_INTERVAL", "5s")
	t.Setenv("DINESYNC_SEED", "true")

	c, err := Load(p)
	assert.Equal(t, err, nil)
	assert.Equal(t, c.Store.Backend, store.BackendBolt)
	assert.Equal(t, c.Store.NATS.Address, "nats://nats:4222")
	assert.Equal(t, c.Broadcast.Address, "nats://nats:4222")
	assert.Equal(t, c.HTTP.AllowedOrigins, []string{"http://a", "http://b"})
	assert.Equal(t, c.Sync.ResyncInterval, 5*time.Second)
	assert.Equal(t, c.Seed, true)
}

func TestInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "store:\n  backend: redis\n"))
	assert.NotEqual(t, err, nil)

	_, err = Load(writeFile(t, "unknown: 1\n"))
	assert.NotEqual(t, err, nil)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotEqual(t, err, nil)

	t.Setenv("DINESYNC_FOCUS_DELAY", "soon")
	_, err = Load("")
	assert.NotEqual(t, err, nil)
}

func TestNATSTLS(t *testing.T) {
	p := writeFile(t, "broadcast:\n  kind: nats\n  tls:\n    ca: /etc/nats/ca.pem\n")
	c, err := Load(p)
	assert.Equal(t, err, nil)
	assert.Equal(t, c.Broadcast.TLS.CA, "/etc/nats/ca.pem")
	assert.Equal(t, c.Store.NATS.TLS.Enabled(), false)

	t.Setenv("DINESYNC_NATS_TLS_CERT", "/etc/nats/client.pem")
	t.Setenv("DINESYNC_NATS_TLS_KEY", "/etc/nats/client-key.pem")
	t.Setenv("DINESYNC_NATS_TLS_INSECURE", "true")
	c, err = Load(p)
	assert.Equal(t, err, nil)
	assert.Equal(t, c.Store.NATS.TLS.Certificate, "/etc/nats/client.pem")
	assert.Equal(t, c.Broadcast.TLS, c.Store.NATS.TLS)
	assert.Equal(t, c.Broadcast.TLS.Insecure, true)
}
