package config

import (
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	S3        S3        `yaml:"s3"`
	NATS      NATS      `yaml:"nats"`
	Auth      Auth      `yaml:"auth"`
	Chat      Chat      `yaml:"chat"`
	Scheduler Scheduler `yaml:"scheduler"`
	CORS      CORS      `yaml:"cors"`
	Log       Log       `yaml:"log"`
}

// S3 holds S3/MinIO storage configuration for profile avatars
type S3 struct {
	Enabled         bool          `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Endpoint        string        `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string        `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string        `yaml:"bucket" env:"S3_BUCKET" env-default:"avatars"`
	Region          string        `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string        `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/avatars"`
	PresignTTL      time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"0s"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration
type Database struct {
	// PostgreSQL
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	// Connection pool settings
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`

	// Apply embedded migrations on startup
	Migrate bool `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

// NATS holds realtime platform configuration.
// An empty URL selects the in-process bus.
type NATS struct {
	URL           string        `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string        `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX" env-default:"chat"`
	StreamName    string        `yaml:"stream_name" env:"NATS_STREAM_NAME" env-default:"CHAT_MESSAGES"`
	StreamMaxAge  time.Duration `yaml:"stream_max_age" env:"NATS_STREAM_MAX_AGE" env-default:"24h"`
}

// Auth holds bearer token configuration
type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER"`
}

// Chat holds chat behaviour tunables
type Chat struct {
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"CHAT_REQUEST_TIMEOUT" env-default:"10s"`
	TypingIdle       time.Duration `yaml:"typing_idle" env:"CHAT_TYPING_IDLE" env-default:"2s"`
	TypingExpiry     time.Duration `yaml:"typing_expiry" env:"CHAT_TYPING_EXPIRY" env-default:"5s"`
	MaxMessageLength int           `yaml:"max_message_length" env:"CHAT_MAX_MESSAGE_LENGTH" env-default:"2000"`
}

// Scheduler holds scheduler configuration
type Scheduler struct {
	Enabled   bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"false"`
	Interval  time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"1h"`
	Retention time.Duration `yaml:"retention" env:"NOTIFICATIONS_RETENTION" env-default:"720h"`
}

// CORS holds cross-origin settings for browser clients
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Client holds configuration for the terminal client
type Client struct {
	APIURL         string        `yaml:"api_url" env:"CHAT_API_URL" env-default:"http://localhost:8080"`
	NATSURL        string        `yaml:"nats_url" env:"NATS_URL"`
	SubjectPrefix  string        `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX" env-default:"chat"`
	StreamName     string        `yaml:"stream_name" env:"NATS_STREAM_NAME" env-default:"CHAT_MESSAGES"`
	Token          string        `yaml:"token" env:"CHAT_TOKEN"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CHAT_REQUEST_TIMEOUT" env-default:"10s"`
	TypingIdle     time.Duration `yaml:"typing_idle" env:"CHAT_TYPING_IDLE" env-default:"2s"`
	TypingExpiry   time.Duration `yaml:"typing_expiry" env:"CHAT_TYPING_EXPIRY" env-default:"5s"`
}

// LevelName normalizes the configured log level
func (l Log) LevelName() string {
	return strings.ToLower(strings.TrimSpace(l.Level))
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
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

// LoadClient loads the terminal client configuration from the environment
func LoadClient() (Client, error) {
	_ = godotenv.Load()

	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
