package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"bamboowoods/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Admin      AdminConfig      `yaml:"admin"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Email      EmailConfig      `yaml:"email"`
	Places     PlacesConfig     `yaml:"places"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// Timezone is the venue's IANA zone; it decides which calendar day is
	// "today".
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone.
func (a AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

type HTTPConfig struct {
	Port           int             `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	// ClientIPHeader names a header set by a trusted reverse proxy, such as
	// X-Forwarded-For. Empty means the peer address identifies the client.
	ClientIPHeader string `yaml:"client_ip_header"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// IdleTTL is how long an unused per-client limiter is kept.
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN builds a libpq-style connection string.
func (p PostgresConfig) DSN() string {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslmode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"`
}

// AdminConfig names the environment variables holding the seed operator.
type AdminConfig struct {
	EmailEnv    string `yaml:"email_env"`
	PasswordEnv string `yaml:"password_env"`
}

type DashboardConfig struct {
	PageSize int `yaml:"page_size"`
}

// EmailConfig configures the transactional email provider. Secrets are
// referenced by environment variable name and resolved per request.
type EmailConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	From           string        `yaml:"from"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	FunctionKeyEnv string        `yaml:"function_key_env"`
	VenueLocation  string        `yaml:"venue_location"`
	Timeout        time.Duration `yaml:"timeout"`
}

type PlacesConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	PlaceIDEnv string        `yaml:"place_id_env"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	Timeout    time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
	DigestTime     string  `yaml:"digest_time"`
	Debug          bool    `yaml:"debug"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load(configPath string) (*Config, error) {
	// .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if _, err := c.App.Location(); err != nil {
		return err
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}

	if c.Email.APIKeyEnv == "" {
		return errors.New("email.api_key_env is required")
	}
	if !strings.Contains(c.Email.From, "@") {
		return fmt.Errorf("email.from %q is not an address", c.Email.From)
	}

	if c.Dashboard.PageSize < 1 {
		return errors.New("dashboard.page_size must be positive")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bamboo-woods"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "Africa/Nairobi"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RateLimit.IdleTTL == 0 {
		c.HTTP.RateLimit.IdleTTL = 10 * time.Minute
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = models.DefaultSessionTTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "bw_session"
	}
	if c.Admin.EmailEnv == "" {
		c.Admin.EmailEnv = "ADMIN_EMAIL"
	}
	if c.Admin.PasswordEnv == "" {
		c.Admin.PasswordEnv = "ADMIN_PASSWORD"
	}
	if c.Dashboard.PageSize == 0 {
		c.Dashboard.PageSize = models.DefaultPageSize
	}

	if c.Email.Endpoint == "" {
		c.Email.Endpoint = "https://api.resend.com/emails"
	}
	if c.Email.From == "" {
		c.Email.From = "Bamboo Woods <onboarding@resend.dev>"
	}
	if c.Email.APIKeyEnv == "" {
		c.Email.APIKeyEnv = "RESEND_API_KEY"
	}
	if c.Email.FunctionKeyEnv == "" {
		c.Email.FunctionKeyEnv = "BOOKING_EMAIL_FUNCTION_KEY"
	}
	if c.Email.VenueLocation == "" {
		c.Email.VenueLocation = "Nakuru-Marigat Road"
	}
	if c.Email.Timeout == 0 {
		c.Email.Timeout = 10 * time.Second
	}

	if c.Places.Endpoint == "" {
		c.Places.Endpoint = "https://maps.googleapis.com/maps/api/place/details/json"
	}
	if c.Places.APIKeyEnv == "" {
		c.Places.APIKeyEnv = "GOOGLE_PLACES_API_KEY"
	}
	if c.Places.PlaceIDEnv == "" {
		c.Places.PlaceIDEnv = "GOOGLE_PLACE_ID"
	}
	if c.Places.CacheTTL == 0 {
		c.Places.CacheTTL = models.ReviewsCacheTTL
	}
	if c.Places.Timeout == 0 {
		c.Places.Timeout = 10 * time.Second
	}
}
