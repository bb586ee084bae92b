package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverlaysFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verdict.yaml")
	doc := `
server:
  addr: ":9090"
model:
  version: "2.1.0"
audit:
  backend: postgres
  index: redis
postgres:
  dsn: "postgres://audit@localhost/audit?sslmode=disable"
redis:
  url: "redis://localhost:6379/0"
kafka:
  brokers: ["a:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv(EnvConfigPath, path)
	t.Setenv("VERDICT_ADDR", ":7070")
	t.Setenv("VERDICT_REDIS_INDEX_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "environment wins over file")
	assert.Equal(t, "2.1.0", cfg.Model.Version)
	assert.Equal(t, AuditPostgres, cfg.Audit.Backend)
	assert.Equal(t, IndexRedis, cfg.Audit.Index)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IndexTTL)
	assert.Equal(t, []string{"a:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "xai.audit.records", cfg.Kafka.Topic, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("VERDICT_POLICY_WATCH", "sometimes")
	t.Setenv("VERDICT_SHUTDOWN_TIMEOUT", "soon")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERDICT_POLICY_WATCH")
	assert.Contains(t, err.Error(), "VERDICT_SHUTDOWN_TIMEOUT")
}

func TestFromEnvSplitsBrokers(t *testing.T) {
	t.Setenv("VERDICT_KAFKA_BROKERS", " a:9092, ,b:9092 ")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"non semver model version", func(c *Config) { c.Model.Version = "v1" }, "model.version"},
		{"zero pool", func(c *Config) { c.Model.PoolSize = 0 }, "model.pool_size"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"unknown backend", func(c *Config) { c.Audit.Backend = "s3" }, "audit.backend"},
		{"file backend without path", func(c *Config) { c.Audit.FilePath = "" }, "audit.file_path"},
		{"postgres without dsn", func(c *Config) { c.Audit.Backend = AuditPostgres }, "postgres.dsn"},
		{"redis index without url", func(c *Config) { c.Audit.Index = IndexRedis }, "redis.url"},
		{"sqlite index without path", func(c *Config) { c.Audit.Index = IndexSQLite }, "sqlite_index_path"},
		{"persistent index over memory log", func(c *Config) {
			c.Audit.Backend = AuditMemory
			c.Audit.Index = IndexSQLite
			c.Audit.SQLiteIndexPath = "idx.db"
		}, "memory audit log"},
		{"bad schedule", func(c *Config) { c.Audit.VerifySchedule = "every tuesday" }, "verify_schedule"},
		{"brokers without topic", func(c *Config) {
			c.Kafka.Brokers = []string{"a:9092"}
			c.Kafka.Topic = ""
		}, "kafka.topic"},
		{"watch without file", func(c *Config) { c.Policy.Watch = true }, "policy.file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
