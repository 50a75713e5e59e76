package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"

	ChannelLog   = "log"
	ChannelEmail = "email"
	ChannelRedis = "redis"
)

type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Activation ActivationConfig
	Store      StoreConfig
	Notify     NotifyConfig
	SMTP       SMTPConfig
	Redis      RedisConfig
	Stats      StatsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Name         string `envconfig:"SERVICE_NAME" default:"NutriScan MyLink Webhook Service"`
	Version      string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env          string `envconfig:"APP_ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"3000"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	MaxBodyBytes    int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"1048576"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type ActivationConfig struct {
	CodeTTL         time.Duration   `envconfig:"ACTIVATION_CODE_TTL" default:"720h"`
	MaxCodeAttempts int             `envconfig:"ACTIVATION_MAX_CODE_ATTEMPTS" default:"5"`
	DefaultProduct  string          `envconfig:"ACTIVATION_DEFAULT_PRODUCT" default:"NutriScan Premium - 1 Month"`
	DefaultAmount   decimal.Decimal `envconfig:"ACTIVATION_DEFAULT_AMOUNT" default:"25000"`
	DefaultStatus   string          `envconfig:"ACTIVATION_DEFAULT_STATUS" default:"completed"`
	Source          string          `envconfig:"ACTIVATION_SOURCE" default:"mylink_tiktok"`
}

type StoreConfig struct {
	Driver    string `envconfig:"STORE_DRIVER" default:"memory"`
	SQLiteDSN string `envconfig:"STORE_SQLITE_DSN" default:"file:activation?mode=memory&cache=shared"`
}

type NotifyConfig struct {
	Channels []string `envconfig:"NOTIFY_CHANNELS" default:"log"`
}

// Enabled reports whether the named channel is listed in NOTIFY_CHANNELS.
func (n NotifyConfig) Enabled(channel string) bool {
	for _, c := range n.Channels {
		if strings.EqualFold(strings.TrimSpace(c), channel) {
			return true
		}
	}
	return false
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     string `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"MAIL_FROM"`
}

type RedisConfig struct {
	URL           string        `envconfig:"REDIS_URL"`
	Address       string        `envconfig:"REDIS_ADDR"`
	Password      string        `envconfig:"REDIS_PASSWORD"`
	DB            int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize      int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout   time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout   time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout  time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
	NotifyChannel string        `envconfig:"REDIS_NOTIFY_CHANNEL" default:"activation-events"`
}

type StatsConfig struct {
	Interval time.Duration `envconfig:"STATS_INTERVAL" default:"1m"`
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.App.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.Activation.CodeTTL <= 0 {
		return fmt.Errorf("ACTIVATION_CODE_TTL must be positive")
	}
	if c.Activation.MaxCodeAttempts <= 0 {
		return fmt.Errorf("ACTIVATION_MAX_CODE_ATTEMPTS must be positive")
	}
	if c.Activation.DefaultAmount.IsNegative() {
		return fmt.Errorf("ACTIVATION_DEFAULT_AMOUNT must not be negative")
	}

	switch strings.ToLower(c.Store.Driver) {
	case StoreDriverMemory, StoreDriverSQLite:
		c.Store.Driver = strings.ToLower(c.Store.Driver)
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	for _, channel := range c.Notify.Channels {
		switch strings.ToLower(strings.TrimSpace(channel)) {
		case ChannelLog, ChannelEmail, ChannelRedis:
		default:
			return fmt.Errorf("unsupported notification channel %q", channel)
		}
	}
	if c.Notify.Enabled(ChannelEmail) {
		missing := []string{}
		if c.SMTP.Host == "" {
			missing = append(missing, "SMTP_HOST")
		}
		if c.SMTP.From == "" {
			missing = append(missing, "MAIL_FROM")
		}
		if len(missing) > 0 {
			return fmt.Errorf("email notifications require %s", strings.Join(missing, ", "))
		}
	}
	if c.Notify.Enabled(ChannelRedis) && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("redis notifications require REDIS_URL or REDIS_ADDR")
	}
	return nil
}
