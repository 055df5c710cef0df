// Package config loads the dinesync configuration from a YAML file and the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/yndd/dinesync"
	"github.com/yndd/dinesync/server"
	"github.com/yndd/dinesync/store"
	"github.com/yndd/dinesync/transport"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DINESYNC_"

// Broadcast channel kinds.
const (
	BroadcastNone = "none"
	BroadcastNATS = "nats"
)

type Broadcast struct {
	Kind    string        `yaml:"kind,omitempty"`
	Address string        `yaml:"address,omitempty"`
	MaxAge  time.Duration `yaml:"max-age,omitempty"`
	TLS     dinesync.TLS  `yaml:"tls,omitempty"`
}

type Config struct {
	Store     store.Config     `yaml:"store,omitempty"`
	Broadcast Broadcast        `yaml:"broadcast,omitempty"`
	Sync      transport.Config `yaml:"sync,omitempty"`
	HTTP      server.Config    `yaml:"http,omitempty"`
	// Seed writes the restaurant fixtures into absent collections.
	Seed  bool `yaml:"seed,omitempty"`
	Debug bool `yaml:"debug,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: store.Config{
			Backend: store.BackendJSON,
			Dir:     "./data",
			NATS: store.NATSConfig{
				Bucket: "dinesync",
			},
		},
		Broadcast: Broadcast{
			Kind:   BroadcastNone,
			MaxAge: time.Minute,
		},
		Sync: transport.Config{
			Channel:    dinesync.DefaultChannel,
			Keys:       transport.DefaultKeys,
			FocusDelay: 100 * time.Millisecond,
		},
		HTTP: server.Config{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads the file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read config %s", path)
		}
		if err := yaml.UnmarshalStrict(b, c); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config %s", path)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// Validate checks the values no component can repair on its own.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendJSON, store.BackendSQLite, store.BackendBolt, store.BackendNATS:
	default:
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Broadcast.Kind {
	case BroadcastNone, BroadcastNATS:
	default:
		return errors.Errorf("unknown broadcast kind %q", c.Broadcast.Kind)
	}
	if c.Sync.ResyncInterval < 0 || c.Sync.FocusDelay < 0 {
		return errors.New("sync intervals must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s%s", EnvPrefix, name)
		}
		*dst = d
		return nil
	}

	backend := string(c.Store.Backend)
	str("STORE_BACKEND", &backend)
	c.Store.Backend = store.Backend(backend)
	str("STORE_DIR", &c.Store.Dir)
	str("STORE_BUCKET", &c.Store.NATS.Bucket)
	str("BROADCAST", &c.Broadcast.Kind)
	str("CHANNEL", &c.Sync.Channel)
	str("HTTP_ADDR", &c.HTTP.Addr)

	if v, ok := os.LookupEnv(EnvPrefix + "NATS_ADDRESS"); ok {
		c.Store.NATS.Address = v
		c.Broadcast.Address = v
	}
	// NATS_TLS_* apply to both NATS clients
	str("NATS_TLS_CA", &c.Store.NATS.TLS.CA)
	str("NATS_TLS_CERT", &c.Store.NATS.TLS.Certificate)
	str("NATS_TLS_KEY", &c.Store.NATS.TLS.Key)
	if v, ok := os.LookupEnv(EnvPrefix + "NATS_TLS_INSECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sNATS_TLS_INSECURE", EnvPrefix)
		}
		c.Store.NATS.TLS.Insecure = b
	}
	if c.Store.NATS.TLS.Enabled() {
		c.Broadcast.TLS = c.Store.NATS.TLS
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sSEED", EnvPrefix)
		}
		c.Seed = b
	}
	if err := dur("RESYNC_INTERVAL", &c.Sync.ResyncInterval); err != nil {
		return err
	}
	return dur("FOCUS_DELAY", &c.Sync.FocusDelay)
}
