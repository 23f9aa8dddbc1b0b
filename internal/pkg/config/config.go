package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection,
//   gateway credentials, broker URL)
// - default: Values common across all environments (timeouts, tiers, polling)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Gateway GatewayConfig
	AMQP    AMQPConfig
	Meeting MeetingConfig
	Worker  WorkerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// GatewayConfig points at the external card-charge API. SuccessPrefix is the
// result-code prefix the provider documents for approved operations.
type GatewayConfig struct {
	BaseURL       string        `envconfig:"GATEWAY_BASE_URL" required:"true"`
	ProfileID     string        `envconfig:"GATEWAY_PROFILE_ID" required:"true"`
	ServerKey     string        `envconfig:"GATEWAY_SERVER_KEY" required:"true"`
	SuccessPrefix string        `envconfig:"GATEWAY_SUCCESS_PREFIX" default:"G1"`
	Timeout       time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`
	CallbackURL   string        `envconfig:"GATEWAY_CALLBACK_URL" required:"true"`
}

type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL" required:"true"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"tutorbook.events"`
}

type MeetingConfig struct {
	BaseURL string        `envconfig:"MEETING_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"MEETING_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"MEETING_TIMEOUT" default:"10s"`
}

type WorkerConfig struct {
	PollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	BatchSize    int           `envconfig:"WORKER_BATCH_SIZE" default:"20"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8889"},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{Level: "error"},
		JWT: JWTConfig{Secret: "test-secret"},
		Gateway: GatewayConfig{
			BaseURL:       "http://localhost:18080",
			ProfileID:     "test-profile",
			ServerKey:     "test-key",
			SuccessPrefix: "G1",
			Timeout:       2 * time.Second,
			CallbackURL:   "http://localhost:8889/api/payments/callback",
		},
		Worker: WorkerConfig{
			PollInterval: 100 * time.Millisecond,
			BatchSize:    20,
		},
	}
}
