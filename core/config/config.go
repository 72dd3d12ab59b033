package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-insights/core/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	RefreshEncodingForm = "form"
	RefreshEncodingJSON = "json"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	CalCom   CalComConfig   `mapstructure:"calcom"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"` // sqlite file or DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig is optional; with an empty Addr the in-memory cache is used.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
	RecoveryTTL time.Duration `mapstructure:"recovery_ttl"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type SecurityConfig struct {
	// TokenEncryptionKey is a base64 encoded 32 byte key. Empty disables sealing.
	TokenEncryptionKey string `mapstructure:"token_encryption_key"`
}

type CalComConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIVersion       string        `mapstructure:"api_version"`
	APIVersionHeader string        `mapstructure:"api_version_header"`
	TokenURL         string        `mapstructure:"token_url"`
	ClientID         string        `mapstructure:"client_id"`
	ClientSecret     string        `mapstructure:"client_secret"`
	ProviderID       string        `mapstructure:"provider_id"`
	RefreshEncoding  string        `mapstructure:"refresh_encoding"`
	RefreshBearer    bool          `mapstructure:"refresh_bearer"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	TopUpdatedTake   int           `mapstructure:"top_updated_take"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "booking-insights")
	v.SetDefault("app.env", EnvDevelopment)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "booking_insights")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "booking-insights.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "booking-insights")
	v.SetDefault("redis.lock_ttl", 30*time.Second)
	v.SetDefault("redis.recovery_ttl", 24*time.Hour)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", 12*time.Hour)

	v.SetDefault("security.token_encryption_key", "")

	v.SetDefault("calcom.base_url", "https://api.cal.com/v2")
	v.SetDefault("calcom.api_version", "2024-08-13")
	v.SetDefault("calcom.api_version_header", "cal-api-version")
	v.SetDefault("calcom.token_url", "https://api.cal.com/v2/oauth/token")
	v.SetDefault("calcom.client_id", "")
	v.SetDefault("calcom.client_secret", "")
	v.SetDefault("calcom.provider_id", "calcom")
	v.SetDefault("calcom.refresh_encoding", RefreshEncodingJSON)
	v.SetDefault("calcom.refresh_bearer", false)
	v.SetDefault("calcom.request_timeout", 10*time.Second)
	v.SetDefault("calcom.top_updated_take", 5)
}

// Load reads .env (if present), an optional config.yaml from the given
// directories, then environment variables such as CALCOM_CLIENT_ID.
func Load(configPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "/etc/booking-insights"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver: %q", c.Database.Driver)
	}
	switch c.CalCom.RefreshEncoding {
	case RefreshEncodingForm, RefreshEncodingJSON:
	default:
		return fmt.Errorf("unsupported calcom.refresh_encoding: %q", c.CalCom.RefreshEncoding)
	}
	if strings.TrimSpace(c.CalCom.BaseURL) == "" {
		return errors.New("calcom.base_url is required")
	}
	if strings.TrimSpace(c.CalCom.ProviderID) == "" {
		return errors.New("calcom.provider_id is required")
	}
	if c.CalCom.RequestTimeout <= 0 {
		return errors.New("calcom.request_timeout must be > 0")
	}
	if c.CalCom.TopUpdatedTake < 1 || c.CalCom.TopUpdatedTake > constants.MaxTake {
		return fmt.Errorf("calcom.top_updated_take must be within 1..%d, got %d", constants.MaxTake, c.CalCom.TopUpdatedTake)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("auth.jwt_secret is required outside development")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, EnvDevelopment)
}

// HasOAuthClient reports whether refresh exchanges can be attempted.
func (c CalComConfig) HasOAuthClient() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}
