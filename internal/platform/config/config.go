// Package config loads process configuration. Defaults are applied first,
// then the YAML file named by VERDICT_CONFIG (if any), then VERDICT_*
// environment variables. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the optional YAML overlay.
const EnvConfigPath = "VERDICT_CONFIG"

// Audit store backends.
const (
	AuditFile     = "file"
	AuditMemory   = "memory"
	AuditPostgres = "postgres"
)

// Audit index backends.
const (
	IndexNone   = "none"
	IndexMemory = "memory"
	IndexRedis  = "redis"
	IndexSQLite = "sqlite"
)

// Config is the full process configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Model    Model    `yaml:"model"`
	Audit    Audit    `yaml:"audit"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Kafka    Kafka    `yaml:"kafka"`
	Policy   Policy   `yaml:"policy"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	BatchLimit      int           `yaml:"batch_limit"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Model selects the scoring model and bounds concurrent scoring calls.
type Model struct {
	Version  string `yaml:"version"`
	PoolSize int64  `yaml:"pool_size"`
}

type Audit struct {
	Backend         string `yaml:"backend"`
	FilePath        string `yaml:"file_path"`
	Index           string `yaml:"index"`
	SQLiteIndexPath string `yaml:"sqlite_index_path"`
	VerifySchedule  string `yaml:"verify_schedule"`
	VerifyOnStart   bool   `yaml:"verify_on_start"`
}

type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IndexTTL     time.Duration `yaml:"index_ttl"`
}

type Postgres struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Kafka enables audit replication when Brokers is non-empty.
type Kafka struct {
	Brokers           []string      `yaml:"brokers"`
	Topic             string        `yaml:"topic"`
	ClientID          string        `yaml:"client_id"`
	Partitions        int32         `yaml:"partitions"`
	ReplicationFactor int16         `yaml:"replication_factor"`
	ProduceTimeout    time.Duration `yaml:"produce_timeout"`
}

// Policy points at an optional YAML policy table.
type Policy struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			BatchLimit:      8,
		},
		Log:   Log{Level: "info", Format: "json"},
		Model: Model{Version: "1.0.0", PoolSize: 16},
		Audit: Audit{
			Backend:        AuditFile,
			FilePath:       "audit_log.jsonl",
			Index:          IndexMemory,
			VerifySchedule: "@every 1h",
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: Postgres{MaxOpenConns: 10},
		Kafka: Kafka{
			Topic:             "xai.audit.records",
			ClientID:          "xai-decision-engine",
			Partitions:        3,
			ReplicationFactor: 1,
			ProduceTimeout:    5 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML overlay and
// the environment, then validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv is Load without the file overlay.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) overlayFile(path string) error {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read configuration file %q: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse configuration file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("VERDICT_ADDR", &c.Server.Addr)
	duration("VERDICT_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	integer("VERDICT_BATCH_LIMIT", &c.Server.BatchLimit)
	str("VERDICT_LOG_LEVEL", &c.Log.Level)
	str("VERDICT_LOG_FORMAT", &c.Log.Format)

	str("VERDICT_MODEL_VERSION", &c.Model.Version)
	var pool int
	integer("VERDICT_SCORING_POOL_SIZE", &pool)
	if pool != 0 {
		c.Model.PoolSize = int64(pool)
	}

	str("VERDICT_AUDIT_BACKEND", &c.Audit.Backend)
	str("VERDICT_AUDIT_FILE", &c.Audit.FilePath)
	str("VERDICT_AUDIT_INDEX", &c.Audit.Index)
	str("VERDICT_AUDIT_SQLITE_INDEX", &c.Audit.SQLiteIndexPath)
	str("VERDICT_AUDIT_VERIFY_SCHEDULE", &c.Audit.VerifySchedule)
	boolean("VERDICT_AUDIT_VERIFY_ON_START", &c.Audit.VerifyOnStart)

	str("VERDICT_REDIS_URL", &c.Redis.URL)
	integer("VERDICT_REDIS_POOL_SIZE", &c.Redis.PoolSize)
	duration("VERDICT_REDIS_INDEX_TTL", &c.Redis.IndexTTL)

	str("VERDICT_POSTGRES_DSN", &c.Postgres.DSN)
	integer("VERDICT_POSTGRES_MAX_OPEN_CONNS", &c.Postgres.MaxOpenConns)

	if v, ok := lookup("VERDICT_KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("VERDICT_KAFKA_TOPIC", &c.Kafka.Topic)
	duration("VERDICT_KAFKA_PRODUCE_TIMEOUT", &c.Kafka.ProduceTimeout)

	str("VERDICT_POLICY_FILE", &c.Policy.File)
	boolean("VERDICT_POLICY_WATCH", &c.Policy.Watch)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects inconsistent combinations.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.BatchLimit < 1 {
		return errors.New("server.batch_limit must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := semver.StrictNewVersion(c.Model.Version); err != nil {
		return fmt.Errorf("model.version %q is not a semantic version: %w", c.Model.Version, err)
	}
	if c.Model.PoolSize < 1 {
		return errors.New("model.pool_size must be positive")
	}

	switch c.Audit.Backend {
	case AuditFile:
		if c.Audit.FilePath == "" {
			return errors.New("audit.file_path is required when audit.backend=file")
		}
	case AuditMemory:
	case AuditPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when audit.backend=postgres")
		}
	default:
		return fmt.Errorf("audit.backend %q is not supported", c.Audit.Backend)
	}

	switch c.Audit.Index {
	case IndexNone, IndexMemory:
	case IndexRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when audit.index=redis")
		}
	case IndexSQLite:
		if c.Audit.SQLiteIndexPath == "" {
			return errors.New("audit.sqlite_index_path is required when audit.index=sqlite")
		}
	default:
		return fmt.Errorf("audit.index %q is not supported", c.Audit.Index)
	}
	if c.Audit.Backend == AuditMemory && c.Audit.Index != IndexMemory && c.Audit.Index != IndexNone {
		return fmt.Errorf("audit.index=%s cannot index a memory audit log", c.Audit.Index)
	}

	if c.Audit.VerifySchedule != "" {
		if _, err := cron.ParseStandard(c.Audit.VerifySchedule); err != nil {
			return fmt.Errorf("audit.verify_schedule: %w", err)
		}
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}
	if c.Policy.Watch && c.Policy.File == "" {
		return errors.New("policy.file is required when policy.watch=true")
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", level, err)
	}
	return l, nil
}
