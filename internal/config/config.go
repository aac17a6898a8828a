package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	GeoIP     GeoIPConfig
	Mail      MailConfig
	Report    ReportConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	Port string
	// PublicURL адрес коллектора, который подставляется в tracking.js
	PublicURL string
}

type DBConfig struct {
	Driver   string
	Path     string // только для sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	// ResetActionsOnStartup пересоздаёт таблицу actions при каждом запуске
	ResetActionsOnStartup bool
}

type RedisConfig struct {
	Host string
	Port string
}

// Enabled кэш геолокации включается только при заданном REDIS_HOST
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type GeoIPConfig struct {
	CityDBPath string
	ASNDBPath  string
	CacheTTL   time.Duration
}

type MailConfig struct {
	SMTPHost  string
	SMTPPort  int
	User      string
	Password  string
	From      string
	Recipient string
}

type ReportConfig struct {
	Enabled bool
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type LogConfig struct {
	Level string
	File  string
}

const fallbackEmail = "your_email@example.com"

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	return load(".env")
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	// PORT принимается как запасное имя для APP_PORT
	_ = v.BindEnv("APP_PORT", "APP_PORT", "PORT")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.PublicURL = strings.TrimRight(v.GetString("APP_PUBLIC_URL"), "/")

	cfg.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DB.Path = v.GetString("DB_PATH")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.ResetActionsOnStartup = v.GetBool("DB_RESET_ACTIONS_ON_STARTUP")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")

	cfg.GeoIP.CityDBPath = v.GetString("GEOIP_CITY_DB")
	cfg.GeoIP.ASNDBPath = v.GetString("GEOIP_ASN_DB")
	cfg.GeoIP.CacheTTL = v.GetDuration("GEOIP_CACHE_TTL")

	cfg.Mail.SMTPHost = v.GetString("SMTP_HOST")
	cfg.Mail.SMTPPort = v.GetInt("SMTP_PORT")
	cfg.Mail.User = v.GetString("EMAIL_USER")
	cfg.Mail.Password = v.GetString("EMAIL_PASS")
	cfg.Mail.From = cfg.Mail.User
	cfg.Mail.Recipient = v.GetString("RECIPIENT_EMAIL")

	cfg.Report.Enabled = v.GetBool("REPORT_ENABLED")

	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize <= 0 {
		cfg.RateLimit.BurstSize = 20
	}

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.File = v.GetString("LOG_FILE")

	if cfg.DB.Driver != DriverSQLite && cfg.DB.Driver != DriverPostgres {
		return nil, errors.New("unsupported DB_DRIVER: " + cfg.DB.Driver)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8800")
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:8800")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "tracking.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_RESET_ACTIONS_ON_STARTUP", true)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("GEOIP_CACHE_TTL", 24*time.Hour)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_USER", fallbackEmail)
	v.SetDefault("EMAIL_PASS", "your_email_password")
	v.SetDefault("RECIPIENT_EMAIL", fallbackEmail)
	v.SetDefault("REPORT_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}
