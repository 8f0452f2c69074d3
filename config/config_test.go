package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the config reads so tests see only
// the static env-defaults, regardless of the shell they run in.
// t.Setenv registers the restore before the unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "LOG_LEVEL",
		"KAFKA_BOOTSTRAP_SERVERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "KAFKA_START_OFFSET",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"DESTINATION_TABLE", "SINK_TYPE",
		"MAX_RETRIES", "RETRY_BACKOFF_MS", "MAX_BACKOFF_MS", "WRITE_TIMEOUT_MS", "UPDATE_MODE",
		"BOOTSTRAP_ATTEMPTS", "BOOTSTRAP_INTERVAL_MS",
		"METRICS_ENABLED", "METRICS_ADDRESS",
		"INTERVAL_SECONDS", "LOADGEN_TABLE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "changesink", cfg.AppName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "dbserver1.public.orders", cfg.Kafka.Topic)
	assert.Equal(t, "orders", cfg.Destination.Table)
	assert.Equal(t, "postgres", cfg.Sink.Type)
	assert.Equal(t, 5, cfg.Replicator.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Replicator.RetryBackoff())
	assert.Equal(t, 5*time.Second, cfg.Replicator.WriteTimeout())
	assert.Equal(t, "upsert", cfg.Replicator.UpdateMode)
	assert.Equal(t, 10, cfg.Bootstrap.Attempts)
	assert.Equal(t, 10*time.Second, cfg.Loadgen.Interval())
}

func TestLoadFromTOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "changesink.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[kafka]
brokers = ["kafka-1:9092", "kafka-2:9092"]
topic = "dbserver1.public.orders"
group_id = "replica-a"

[destination]
host = "postgres-dest"
table = "orders_replica"

[replicator]
max_retries = 3
update_mode = "update"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "replica-a", cfg.Kafka.GroupID)
	assert.Equal(t, "postgres-dest", cfg.Destination.Host)
	assert.Equal(t, "orders_replica", cfg.Destination.Table)
	assert.Equal(t, 3, cfg.Replicator.MaxRetries)
	assert.Equal(t, "update", cfg.Replicator.UpdateMode)

	// untouched fields keep their defaults
	assert.Equal(t, uint16(5432), cfg.Destination.Port)
	assert.Equal(t, "postgres", cfg.Sink.Type)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "changesink.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[destination]
host = "from-file"
`), 0o644))

	t.Setenv("POSTGRES_HOST", "from-env")
	t.Setenv("KAFKA_TOPIC", "dbserver1.public.payments")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Destination.Host)
	assert.Equal(t, "dbserver1.public.payments", cfg.Kafka.Topic)
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "kafka:29092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka:29092"}, cfg.Kafka.Brokers)
}

func TestLoadMalformedEnvValueIsError(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_PORT", "not-a-port")

	cfg, err := Load("")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "POSTGRES_PORT")
}

func TestLoadUnsupportedFormat(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "changesink.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConnString(t *testing.T) {
	d := DestinationConfig{
		Host:     "postgres-dest",
		Port:     5432,
		Username: "destuser",
		Password: "destpass",
		Database: "destdb",
	}
	assert.Equal(t, "host=postgres-dest port=5432 user=destuser password=destpass dbname=destdb", d.ConnString())

	d.Password = ""
	assert.NotContains(t, d.ConnString(), "password")
}
