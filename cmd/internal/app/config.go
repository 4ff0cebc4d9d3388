package app

import "time"

// Config contains all runtime configuration loaded from environment
// variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	MigrateOnStart bool

	// AgeKeyHex is the hex-encoded AES key that seals the student age
	// column. Required when a database is configured; DB-less dev mode
	// falls back to an ephemeral key.
	AgeKeyHex string

	// If true, /readyz returns 503 unless the DB is configured and
	// reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("ROLLCALL_HTTP_ADDR", "0.0.0.0:8000"),
		LogLevel:  EnvString("ROLLCALL_LOG_LEVEL", "info"),
		LogFormat: EnvString("ROLLCALL_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("ROLLCALL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ROLLCALL_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ROLLCALL_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("ROLLCALL_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("ROLLCALL_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:    EnvString("ROLLCALL_DATABASE_URL", ""),
		DBMaxConns:     EnvInt32("ROLLCALL_DB_MAX_CONNS", 10),
		DBMinConns:     EnvInt32("ROLLCALL_DB_MIN_CONNS", 0),
		MigrateOnStart: EnvBool("ROLLCALL_DB_MIGRATE_ON_START", true),

		AgeKeyHex: EnvString("ROLLCALL_AGE_KEY", ""),

		ReadinessRequireDB: EnvBool("ROLLCALL_READINESS_REQUIRE_DB", false),
	}
}
