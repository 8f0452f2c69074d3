package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/web3tea/changesink/source"
)

type Config struct {
	AppName  string `json:"app_name" toml:"app_name" env:"APP_NAME" env-default:"changesink"`
	LogLevel string `json:"log_level" toml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	Kafka       source.Config     `json:"kafka" toml:"kafka"`
	Destination DestinationConfig `json:"destination" toml:"destination"`
	Sink        SinkConfig        `json:"sink" toml:"sink"`
	Replicator  ReplicatorConfig  `json:"replicator" toml:"replicator"`
	Bootstrap   BootstrapConfig   `json:"bootstrap" toml:"bootstrap"`
	Metrics     MetricsConfig     `json:"metrics" toml:"metrics"`
	Loadgen     LoadgenConfig     `json:"loadgen" toml:"loadgen"`
}

type DestinationConfig struct {
	Host     string `json:"host" toml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     uint16 `json:"port" toml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username string `json:"username" toml:"username" env:"POSTGRES_USER" env-default:"destuser"`
	Password string `json:"password" toml:"password" env:"POSTGRES_PASSWORD" env-default:"destpass"`
	Database string `json:"database" toml:"database" env:"POSTGRES_DB" env-default:"destdb"`
	Table    string `json:"table" toml:"table" env:"DESTINATION_TABLE" env-default:"orders"`
}

// ConnString renders a key/value libpq-style connection string,
// leaving out blank parameters.
func (d DestinationConfig) ConnString() string {
	var sb strings.Builder
	for _, kv := range [][2]string{
		{"host", d.Host},
		{"port", fmt.Sprintf("%d", d.Port)},
		{"user", d.Username},
		{"password", d.Password},
		{"dbname", d.Database},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			continue
		}
		sb.WriteString(kv[0] + "=" + kv[1] + " ")
	}
	return strings.TrimSpace(sb.String())
}

type SinkConfig struct {
	// Type selects the destination writer: postgres (default),
	// console, stdout or memory. Everything but postgres is a dry run.
	Type string `json:"type" toml:"type" env:"SINK_TYPE" env-default:"postgres"`
}

type ReplicatorConfig struct {
	MaxRetries     int `json:"max_retries" toml:"max_retries" env:"MAX_RETRIES" env-default:"5"`
	RetryBackoffMS int `json:"retry_backoff_ms" toml:"retry_backoff_ms" env:"RETRY_BACKOFF_MS" env-default:"500"`
	MaxBackoffMS   int `json:"max_backoff_ms" toml:"max_backoff_ms" env:"MAX_BACKOFF_MS" env-default:"30000"`
	WriteTimeoutMS int `json:"write_timeout_ms" toml:"write_timeout_ms" env:"WRITE_TIMEOUT_MS" env-default:"5000"`

	// UpdateMode decides what an update event becomes at the
	// destination: "upsert" (default) heals update-before-create
	// redelivery, "update" keeps the source-faithful zero-row update.
	UpdateMode string `json:"update_mode" toml:"update_mode" env:"UPDATE_MODE" env-default:"upsert"`
}

func (r ReplicatorConfig) RetryBackoff() time.Duration {
	return time.Duration(r.RetryBackoffMS) * time.Millisecond
}

func (r ReplicatorConfig) MaxBackoff() time.Duration {
	return time.Duration(r.MaxBackoffMS) * time.Millisecond
}

func (r ReplicatorConfig) WriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeoutMS) * time.Millisecond
}

type BootstrapConfig struct {
	Attempts   int `json:"attempts" toml:"attempts" env:"BOOTSTRAP_ATTEMPTS" env-default:"10"`
	IntervalMS int `json:"interval_ms" toml:"interval_ms" env:"BOOTSTRAP_INTERVAL_MS" env-default:"5000"`
}

func (b BootstrapConfig) Interval() time.Duration {
	return time.Duration(b.IntervalMS) * time.Millisecond
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Address string `json:"address" toml:"address" env:"METRICS_ADDRESS" env-default:":9091"`
}

type LoadgenConfig struct {
	IntervalSeconds int    `json:"interval_seconds" toml:"interval_seconds" env:"INTERVAL_SECONDS" env-default:"10"`
	Table           string `json:"table" toml:"table" env:"LOADGEN_TABLE" env-default:"orders"`
}

func (l LoadgenConfig) Interval() time.Duration {
	return time.Duration(l.IntervalSeconds) * time.Second
}

// Load reads the optional config file, then overlays environment
// variables on top of it; env-defaults fill whatever is still unset.
// An empty path loads from the environment alone. A malformed value,
// whether in the file or the environment, is an error, never a panic.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := LoadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

// LoadFromFile parses a TOML or JSON config file into cfg. Neither
// environment variables nor defaults are applied here.
func LoadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".json"):
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case strings.HasSuffix(path, ".toml"):
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	return nil
}
