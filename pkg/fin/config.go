package fin

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// Config is the root configuration structure.
//
// Values support environment variable expansion (${VAR} or $VAR), so
// credentials and tokens can be injected at runtime:
//
//	connection:
//	  host: fin.example.com
//	  port: 3000
//	  bic: BANKBEBB
//	  credentials:
//	    username: ${FIN_USERNAME}
//	    password: ${FIN_PASSWORD}
//	  tls:
//	    enabled: true
//	    certFile: /etc/swift/client.crt
//	    keyFile: /etc/swift/client.key
//	    caFile: /etc/swift/ca.pem
//
//	session:
//	  heartbeatInterval: 30s
//	  autoReconnect: true
//
//	store:
//	  backend: badger
//	  badger:
//	    path: /var/lib/swift-fin
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Session    SessionConfig    `yaml:"session"`
	Store      StoreConfig      `yaml:"store"`
	GPI        GPIConfig        `yaml:"gpi"`
	Screening  ScreeningConfig  `yaml:"screening"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ConnectionConfig selects the endpoint and identity.
type ConnectionConfig struct {
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	BIC         string            `yaml:"bic"`
	Credentials CredentialsConfig `yaml:"credentials"`

	// ConnectTimeout bounds dialing plus the login exchange.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// IOTimeout bounds each frame read or write and the wait for an
	// acknowledgement.
	IOTimeout time.Duration `yaml:"ioTimeout"`

	// DNSServer, when set, preflights name resolution against this
	// server so DNS faults are reported distinctly from dial faults.
	DNSServer string `yaml:"dnsServer"`

	TLS TLSConfig `yaml:"tls"`
}

// CredentialsConfig authenticates the logical terminal.
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TLSConfig wraps the connection when enabled. CertFile and KeyFile
// hold the client keypair, CAFile the trusted counterparty roots.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"certFile"`
	KeyFile    string `yaml:"keyFile"`
	CAFile     string `yaml:"caFile"`
	ServerName string `yaml:"serverName"`
}

// SessionConfig tunes the protocol session.
type SessionConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeatInterval"`
	HeartbeatGrace       time.Duration `yaml:"heartbeatGrace"`
	AutoReconnect        bool          `yaml:"autoReconnect"`
	MaxReconnectAttempts int           `yaml:"maxReconnectAttempts"`

	// SequenceSync restores the sequence counters from the durable
	// store at login and checkpoints them after each send. Enabled
	// unless set to false.
	SequenceSync bool `yaml:"sequenceSync"`
}

// StoreConfig selects the durable store backend.
type StoreConfig struct {
	// Backend is memory, badger or mongodb. Defaults to memory.
	Backend string `yaml:"backend"`

	Badger  BadgerConfig  `yaml:"badger"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// BadgerConfig holds the embedded store settings.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// MongoDBConfig holds the server-backed store settings.
type MongoDBConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// GPIConfig enables the payment tracker client when an endpoint is
// set.
type GPIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

// ScreeningConfig enables pre-send party screening: against a remote
// service when an endpoint is set, else against the local deny list
// when one is given.
type ScreeningConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Token    string   `yaml:"token"`
	DenyList []string `yaml:"denyList"`
}

// MetricsConfig enables Prometheus instrumentation on the default
// registerer.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Config{}
	// Absent keys keep opt-out defaults.
	cfg.Session.SequenceSync = true
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Connection.Port == 0 {
		c.Connection.Port = 3000
	}
	if c.Connection.ConnectTimeout == 0 {
		c.Connection.ConnectTimeout = 30 * time.Second
	}
	if c.Connection.IOTimeout == 0 {
		c.Connection.IOTimeout = 30 * time.Second
	}
	if c.Session.HeartbeatInterval == 0 {
		c.Session.HeartbeatInterval = 30 * time.Second
	}
	if c.Session.HeartbeatGrace == 0 {
		c.Session.HeartbeatGrace = 10 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.MongoDB.Database == "" {
		c.Store.MongoDB.Database = "swiftfin"
	}
	if c.Store.MongoDB.Collection == "" {
		c.Store.MongoDB.Collection = "engine"
	}
}

func (c *Config) validate() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.BIC == "" {
		return fmt.Errorf("connection.bic is required")
	}
	if err := message.BIC(c.Connection.BIC).Validate(); err != nil {
		return fmt.Errorf("connection.bic: %w", err)
	}
	if c.Connection.Credentials.Username == "" {
		return fmt.Errorf("connection.credentials.username is required")
	}
	if c.Connection.TLS.Enabled {
		if c.Connection.TLS.CertFile == "" || c.Connection.TLS.KeyFile == "" {
			return fmt.Errorf("connection.tls requires certFile and keyFile when enabled")
		}
	}
	switch c.Store.Backend {
	case "memory":
	case "badger":
		if c.Store.Badger.Path == "" {
			return fmt.Errorf("store.badger.path is required for the badger backend")
		}
	case "mongodb":
		if c.Store.MongoDB.URI == "" {
			return fmt.Errorf("store.mongodb.uri is required for the mongodb backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
