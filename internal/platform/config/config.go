// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	DevMode         bool
	LogLevel        string
}

// Security holds key material locations and admin credentials.
type Security struct {
	KeyFile       string
	Cipher        string
	AdminUsername string
	AdminPassword string
	OTPTTL        time.Duration
	SessionTTL    time.Duration
}

// DatabaseConfig configures PostgreSQL. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the OTP cache. An empty URL selects the in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit fan-out. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Workflow tunes the verification service.
type Workflow struct {
	Signals           string
	RescoreSchedule   string
	AcceptStoredScore bool
}

type Config struct {
	Server   Server
	Security Security
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Workflow Workflow
}

const (
	CipherAESGCM           = "aes-gcm"
	CipherChaCha20Poly1305 = "chacha20poly1305"

	SignalsNone      = "none"
	SignalsSimulated = "simulated"
)

// Load reads an optional .env file then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	r := reader{}
	cfg := Config{
		Server: Server{
			Addr:            r.str("NEOKYC_ADDR", ":8080"),
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			DevMode:         r.boolean("DEV_MODE", false),
			LogLevel:        r.str("LOG_LEVEL", "info"),
		},
		Security: Security{
			KeyFile:       r.str("NEOKYC_KEY_FILE", "secret.key"),
			Cipher:        strings.ToLower(r.str("CIPHER", CipherAESGCM)),
			AdminUsername: r.str("ADMIN_USERNAME", "admin"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
			OTPTTL:        r.duration("OTP_TTL", 5*time.Minute),
			SessionTTL:    r.duration("SESSION_TTL", 60*time.Minute),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    r.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    r.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    r.list("KAFKA_BROKERS"),
			AuditTopic: r.str("KAFKA_AUDIT_TOPIC", "neokyc.audit"),
		},
		Workflow: Workflow{
			Signals:           strings.ToLower(r.str("SIGNALS", SignalsNone)),
			RescoreSchedule:   r.str("RESCORE_SCHEDULE", "@every 1h"),
			AcceptStoredScore: r.boolean("ACCEPT_STORED_SCORE", false),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Security.Cipher {
	case CipherAESGCM, CipherChaCha20Poly1305:
	default:
		return fmt.Errorf("CIPHER: unknown algorithm %q", c.Security.Cipher)
	}
	switch c.Workflow.Signals {
	case SignalsNone, SignalsSimulated:
	default:
		return fmt.Errorf("SIGNALS: unknown provider %q", c.Workflow.Signals)
	}
	if c.Security.OTPTTL <= 0 || c.Security.SessionTTL <= 0 {
		return fmt.Errorf("OTP_TTL and SESSION_TTL must be positive")
	}
	if c.Security.AdminPassword == "" && !c.Server.DevMode {
		return fmt.Errorf("ADMIN_PASSWORD is required outside DEV_MODE")
	}
	return nil
}

// reader keeps the first parse error so FromEnv can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) list(key string) []string {
	var out []string
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
}
