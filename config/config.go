package config

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Planning   PlanningConfig   `yaml:"planning"`
	Identity   IdentityConfig   `yaml:"identity"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                       string `yaml:"dsn"`
	MaxOpenConns              int    `yaml:"max_open_conns"`
	MaxIdleConns              int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes    int    `yaml:"conn_max_lifetime_minutes"`
	EnableExclusionConstraint bool   `yaml:"enable_exclusion_constraint"`
}

// AuthConfig holds the key used to verify bearer tokens issued by the
// identity system.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// AttendanceConfig controls clock-in codes. RequireCodeOnCheckout is a
// pointer so that an explicit false survives defaulting.
type AttendanceConfig struct {
	CodeWindowMinutes     int            `yaml:"code_window_minutes"`
	CodeLength            int            `yaml:"code_length"`
	RequireCodeOnCheckout *bool          `yaml:"require_code_on_checkout"`
	LateGraceMinutes      int            `yaml:"late_grace_minutes"`
	Timezone              string         `yaml:"timezone"`
	CodeWindow            time.Duration  `yaml:"-"`
	LateGrace             time.Duration  `yaml:"-"`
	Location              *time.Location `yaml:"-"`
}

// PlanningConfig describes the upstream shift planning API.
type PlanningConfig struct {
	Enabled        bool              `yaml:"enabled"`
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	HTTPProxy      string            `yaml:"http_proxy"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timezone       string            `yaml:"timezone"`
	Timeout        time.Duration     `yaml:"-"`
}

// IdentityConfig controls guest logins created by public bookings.
type IdentityConfig struct {
	GuestEmailDomain string `yaml:"guest_email_domain"`
	PasswordLength   int    `yaml:"password_length"`
}

// Load reads the configuration from the given path. ${VAR} references are
// expanded from the environment before decoding.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// MaxCodeLength matches the attendance_codes.code column size.
const MaxCodeLength = 32

// Parse decodes a YAML document and applies defaults.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(raw)))))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 5
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Attendance.CodeWindowMinutes <= 0 {
		cfg.Attendance.CodeWindowMinutes = 15
	}
	cfg.Attendance.CodeWindow = time.Duration(cfg.Attendance.CodeWindowMinutes) * time.Minute
	if cfg.Attendance.CodeLength <= 0 {
		cfg.Attendance.CodeLength = 6
	} else if cfg.Attendance.CodeLength > MaxCodeLength {
		log.Printf("attendance.code_length %d exceeds %d, using 6", cfg.Attendance.CodeLength, MaxCodeLength)
		cfg.Attendance.CodeLength = 6
	}
	if cfg.Attendance.RequireCodeOnCheckout == nil {
		on := true
		cfg.Attendance.RequireCodeOnCheckout = &on
	}
	if cfg.Attendance.LateGraceMinutes <= 0 {
		cfg.Attendance.LateGraceMinutes = 5
	}
	cfg.Attendance.LateGrace = time.Duration(cfg.Attendance.LateGraceMinutes) * time.Minute
	cfg.Attendance.Location = loadLocation("attendance.timezone", cfg.Attendance.Timezone)

	if cfg.Planning.TimeoutSeconds <= 0 {
		cfg.Planning.TimeoutSeconds = 10
	}
	cfg.Planning.Timeout = time.Duration(cfg.Planning.TimeoutSeconds) * time.Second
	if cfg.Planning.Timezone == "" {
		cfg.Planning.Timezone = cfg.Attendance.Timezone
	}
	if cfg.Planning.Enabled && cfg.Planning.URL == "" {
		log.Printf("planning.enabled is set without planning.url; shift lookups are disabled")
		cfg.Planning.Enabled = false
	}

	if cfg.Identity.GuestEmailDomain == "" {
		cfg.Identity.GuestEmailDomain = "guests.local"
	}
	if cfg.Identity.PasswordLength < 8 {
		cfg.Identity.PasswordLength = 12
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 100
	}

	return &cfg, nil
}

func loadLocation(key, name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: invalid %s %q: %v. Falling back to UTC.", key, name, err)
		return time.UTC
	}
	return loc
}
