package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by STATE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQL      = "sql"
	BackendRedis    = "redis"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	defaultSQLiteDB = "file:chat-notifier.db?_pragma=busy_timeout(5000)"
)

// Config holds every setting the notifier reads from the environment.
type Config struct {
	App     AppConfig
	API     APIConfig
	Poll    PollConfig
	State   StateConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	JWT     JWTConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"production"`
	Host      string `envconfig:"HTTP_HOST"`
	Port      string `envconfig:"PORT" default:"8083"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Debug     bool   `envconfig:"DEBUG_ROUTES" default:"false"`
	// browser origins allowed to open /ws besides the server's own host
	AllowedOrigins []string `envconfig:"WS_ALLOWED_ORIGINS"`
}

type APIConfig struct {
	BaseURL string        `envconfig:"CHAT_API_URL" required:"true"`
	Token   string        `envconfig:"CHAT_API_TOKEN" required:"true"`
	UserID  string        `envconfig:"CHAT_USER_ID"`
	Timeout time.Duration `envconfig:"CHAT_API_TIMEOUT" default:"20s"`
}

type PollConfig struct {
	ChannelInterval   time.Duration `envconfig:"POLL_CHANNEL_INTERVAL" default:"8s"`
	InitialDelay      time.Duration `envconfig:"POLL_INITIAL_DELAY" default:"2s"`
	InviteInterval    time.Duration `envconfig:"POLL_INVITE_INTERVAL" default:"6s"`
	ActiveInterval    time.Duration `envconfig:"POLL_ACTIVE_INTERVAL" default:"4s"`
	DirectoryFullTick int           `envconfig:"POLL_DIRECTORY_FULL_TICK" default:"5"`
	MessageWindow     int           `envconfig:"POLL_MESSAGE_WINDOW" default:"20"`
	InviteWindow      int           `envconfig:"POLL_INVITE_WINDOW" default:"30"`
	UnreadCap         int           `envconfig:"UNREAD_CAP" default:"99"`
	FanOut            int           `envconfig:"POLL_FAN_OUT" default:"8"`
}

type StateConfig struct {
	Backend string `envconfig:"STATE_BACKEND" default:"sql"`
	Driver  string `envconfig:"STATE_DB_DRIVER" default:"sqlite"`
	DSN     string `envconfig:"STATE_DB_DSN"`
}

type RedisConfig struct {
	URL       string `envconfig:"REDIS_URL"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"chatnotify"`
}

type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"chat.events"`
}

type JWTConfig struct {
	Secret string `envconfig:"SUPABASE_JWT_SECRET"`
}

type TracingConfig struct {
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string  `envconfig:"OTEL_SERVICE_NAME" default:"chat-notifier"`
	SampleRatio float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		// missing .env files are fine; real env vars always win
		_ = godotenv.Load(envFiles...)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("CHAT_API_URL is required")
	}
	if strings.TrimSpace(c.API.Token) == "" {
		return errors.New("CHAT_API_TOKEN is required")
	}
	switch c.State.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQL:
		switch c.State.Driver {
		case DriverPostgres:
			if c.State.DSN == "" {
				return errors.New("STATE_DB_DSN is required for postgres")
			}
		case DriverSQLite:
			if c.State.DSN == "" {
				c.State.DSN = defaultSQLiteDB
			}
		default:
			return fmt.Errorf("unsupported STATE_DB_DRIVER %q", c.State.Driver)
		}
	default:
		return fmt.Errorf("unsupported STATE_BACKEND %q", c.State.Backend)
	}
	if c.State.Backend == BackendRedis && c.Redis.URL == "" {
		return errors.New("REDIS_URL is required for the redis backend")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" && !c.App.IsDev() {
		return errors.New("SUPABASE_JWT_SECRET is required outside APP_ENV=dev")
	}
	if c.Poll.ChannelInterval <= 0 || c.Poll.InviteInterval <= 0 || c.Poll.ActiveInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.Poll.DirectoryFullTick <= 0 {
		c.Poll.DirectoryFullTick = 1
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	return nil
}

// IsDev reports whether the notifier runs in a development environment.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

// ListenAddr is the HTTP bind address. Without a JWT secret the routes are open, so
// the server only listens on loopback.
func (c *Config) ListenAddr() string {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return net.JoinHostPort("127.0.0.1", c.App.Port)
	}
	return net.JoinHostPort(c.App.Host, c.App.Port)
}
