package config

import (
	"log"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        Server        `yaml:"server"`
	Backend       Backend       `yaml:"backend"`
	Database      Database      `yaml:"database"`
	Cache         Cache         `yaml:"cache"`
	Refresher     Refresher     `yaml:"refresher"`
	Notifications Notifications `yaml:"notifications"`
	Dashboard     Dashboard     `yaml:"dashboard"`
	CORS          CORS          `yaml:"cors"`
	Log           Log           `yaml:"log"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"127.0.0.1"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`

	// APIToken is the bearer token required on /api/v1. It may only be left
	// empty when Host is a loopback address.
	APIToken string `yaml:"api_token" env:"SERVER_API_TOKEN"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Loopback reports whether the server only listens on the local machine
func (s Server) Loopback() bool {
	if s.Host == "localhost" {
		return true
	}
	ip := net.ParseIP(s.Host)
	return ip != nil && ip.IsLoopback()
}

// Backend holds the content backend API configuration.
// AccessToken and RefreshToken seed the session; Email/Password are used
// for an automatic login when no token is provided.
type Backend struct {
	BaseURL      string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:3000/api"`
	Timeout      time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30s"`
	AccessToken  string        `yaml:"access_token" env:"BACKEND_ACCESS_TOKEN"`
	RefreshToken string        `yaml:"refresh_token" env:"BACKEND_REFRESH_TOKEN"`
	Email        string        `yaml:"email" env:"BACKEND_EMAIL"`
	Password     string        `yaml:"password" env:"BACKEND_PASSWORD"`
}

// Database holds database configuration
type Database struct {
	// Optional. Notifications fall back to memory when empty.
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	MaxConns int32 `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	MinConns int32 `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"2"`
}

// Cache holds publication list cache configuration
type Cache struct {
	StaleTime time.Duration `yaml:"stale_time" env:"CACHE_STALE_TIME" env-default:"30s"`
}

// Refresher holds background refetch configuration
type Refresher struct {
	Enabled  bool          `yaml:"enabled" env:"REFRESHER_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"REFRESHER_INTERVAL" env-default:"1m"`
}

// Notifications holds notification feed configuration
type Notifications struct {
	BufferSize int `yaml:"buffer_size" env:"NOTIFICATIONS_BUFFER_SIZE" env-default:"100"`
}

// Dashboard holds derived view configuration
type Dashboard struct {
	Platforms      []string      `yaml:"platforms" env:"DASHBOARD_PLATFORMS" env-separator:"," env-default:"X"`
	UpcomingWindow time.Duration `yaml:"upcoming_window" env:"DASHBOARD_UPCOMING_WINDOW" env-default:"168h"`
	UpcomingLimit  int           `yaml:"upcoming_limit" env:"DASHBOARD_UPCOMING_LIMIT" env-default:"5"`
}

// CORS holds allowed origins for the browser dashboard
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// SlogLevel maps the configured level name to a slog level, defaulting to info
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from environment, reading .env when present
func Load() (Config, error) {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoad loads configuration from environment and exits on error
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
