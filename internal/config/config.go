package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSheets   = "sheets"
	StorePostgres = "postgres"
	StoreLocal    = "local"
	StoreDynamoDB = "dynamodb"
)

// Email providers.
const (
	EmailProviderSES = "ses"
	EmailProviderLog = "log"
)

// Config holds all configuration for the site API, worker and CLI.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Postgres PostgresConfig `yaml:"postgres"`
	Local    LocalConfig    `yaml:"local"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Email    EmailConfig    `yaml:"email"`
	Site     SiteConfig     `yaml:"site"`
	Resend   ResendConfig   `yaml:"resend"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int      `yaml:"port" env:"PORT"`
	Host                string   `yaml:"host" env:"SERVER_HOST"`
	AllowedOrigins      []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReadTimeout returns the server read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// StoreConfig selects the contact row store backend.
type StoreConfig struct {
	Type string `yaml:"type" env:"CONTACT_STORE"`
}

// SheetsConfig holds Google Sheets settings. Credentials come either as a
// whole service-account JSON document or as client email plus private key.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" env:"GOOGLE_SHEET_ID"`
	SheetName       string `yaml:"sheet_name" env:"GOOGLE_SHEET_NAME"`
	CredentialsJSON string `yaml:"credentials_json" env:"GOOGLE_SHEETS_CREDENTIALS"`
	ClientEmail     string `yaml:"client_email" env:"GOOGLE_CLIENT_EMAIL"`
	PrivateKey      string `yaml:"private_key" env:"GOOGLE_PRIVATE_KEY"`
	BaseURL         string `yaml:"base_url" env:"GOOGLE_SHEETS_BASE_URL"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for the Sheets API.
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Key returns the private key with literal "\n" sequences turned into
// newlines, as they appear when a PEM block is pasted into an env var.
func (c SheetsConfig) Key() string {
	return strings.ReplaceAll(c.PrivateKey, `\n`, "\n")
}

// HasCredentials reports whether either credential form is present.
func (c SheetsConfig) HasCredentials() bool {
	return c.CredentialsJSON != "" || (c.ClientEmail != "" && c.PrivateKey != "")
}

// PostgresConfig holds the PostgreSQL store settings.
type PostgresConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// LocalConfig holds the JSON file store settings used in development.
type LocalConfig struct {
	Path string `yaml:"path" env:"CONTACT_STORE_PATH"`
}

// DynamoDBConfig holds the DynamoDB store settings.
type DynamoDBConfig struct {
	Table     string `yaml:"table" env:"CONTACT_DYNAMODB_TABLE"`
	Region    string `yaml:"region" env:"AWS_REGION"`
	Partition string `yaml:"partition"`
}

// EmailConfig holds transactional email settings.
type EmailConfig struct {
	Provider       string    `yaml:"provider" env:"EMAIL_PROVIDER"`
	FromEmail      string    `yaml:"from_email" env:"EMAIL_FROM"`
	FromName       string    `yaml:"from_name" env:"EMAIL_FROM_NAME"`
	ReplyTo        string    `yaml:"reply_to" env:"EMAIL_REPLY_TO"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	SES            SESConfig `yaml:"ses"`
}

// Timeout bounds a single send call.
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES configuration
type SESConfig struct {
	AccessKey        string `yaml:"access_key" env:"AWS_SES_ACCESS_KEY"`
	SecretKey        string `yaml:"secret_key" env:"AWS_SES_SECRET_KEY"`
	Region           string `yaml:"region" env:"AWS_SES_REGION"`
	ConfigurationSet string `yaml:"configuration_set" env:"AWS_SES_CONFIGURATION_SET"`
}

// SiteConfig describes the marketing site the emails link back to.
type SiteConfig struct {
	Name    string `yaml:"name" env:"SITE_NAME"`
	URL     string `yaml:"url" env:"SITE_URL"`
	Tagline string `yaml:"tagline"`
}

// ContactURL is where the follow-up email sends people to book a pilot.
func (c SiteConfig) ContactURL() string {
	return strings.TrimRight(c.URL, "/") + "/#contact"
}

// ResendConfig holds the follow-up sweep settings.
type ResendConfig struct {
	Token           string `yaml:"token" env:"RESEND_ROUTINE_TOKEN"`
	ThresholdHours  int    `yaml:"threshold_hours" env:"RESEND_THRESHOLD_HOURS"`
	IntervalMinutes int    `yaml:"interval_minutes" env:"RESEND_INTERVAL_MINUTES"`
	LockTTLSeconds  int    `yaml:"lock_ttl_seconds"`
	ReportBucket    string `yaml:"report_bucket" env:"RESEND_REPORT_BUCKET"`
	ReportRegion    string `yaml:"report_region"`
}

// Threshold is how long after confirmation a record becomes eligible.
func (c ResendConfig) Threshold() time.Duration {
	return time.Duration(c.ThresholdHours) * time.Hour
}

// Interval is how often the worker runs a sweep.
func (c ResendConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LockTTL bounds how long a crashed sweep can keep others out.
func (c ResendConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// RedisConfig holds the optional Redis connection used for sweep locking.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level            string `yaml:"level" env:"LOG_LEVEL"`
	DisableRedaction bool   `yaml:"disable_redaction" env:"LOG_DISABLE_REDACTION"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from file with environment variable
// overrides. A missing file is not an error: the service can be configured
// from the environment alone.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := readFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
	} else if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = StoreSheets
	}
	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "ContactForm"
	}
	if cfg.Sheets.BaseURL == "" {
		cfg.Sheets.BaseURL = "https://sheets.googleapis.com"
	}
	if cfg.Sheets.TimeoutSeconds == 0 {
		cfg.Sheets.TimeoutSeconds = 20
	}
	if cfg.Local.Path == "" {
		cfg.Local.Path = "./data/contacts.json"
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = "us-east-1"
	}
	if cfg.DynamoDB.Partition == "" {
		cfg.DynamoDB.Partition = cfg.Sheets.SheetName
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = EmailProviderSES
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 15
	}
	if cfg.Email.SES.Region == "" {
		cfg.Email.SES.Region = "us-east-1"
	}
	if cfg.Site.Name == "" {
		cfg.Site.Name = "Microlearning"
	}
	if cfg.Site.URL == "" {
		cfg.Site.URL = "https://micro-learning.app"
	}
	if cfg.Site.Tagline == "" {
		cfg.Site.Tagline = "AI-Powered Training for Frontline Workers"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = cfg.Site.Name
	}
	if cfg.Resend.ThresholdHours == 0 {
		cfg.Resend.ThresholdHours = 24
	}
	if cfg.Resend.IntervalMinutes == 0 {
		cfg.Resend.IntervalMinutes = 60
	}
	if cfg.Resend.LockTTLSeconds == 0 {
		cfg.Resend.LockTTLSeconds = 600
	}
	if cfg.Resend.ReportRegion == "" {
		cfg.Resend.ReportRegion = cfg.Email.SES.Region
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate reports settings required by the selected backends. A store
// that cannot be configured is surfaced here instead of on the first
// request.
func (cfg *Config) Validate() error {
	var problems []string

	switch cfg.Store.Type {
	case StoreSheets:
		if cfg.Sheets.SpreadsheetID == "" {
			problems = append(problems, "sheets.spreadsheet_id (GOOGLE_SHEET_ID) is required")
		}
		if !cfg.Sheets.HasCredentials() {
			problems = append(problems, "sheets credentials (GOOGLE_SHEETS_CREDENTIALS or GOOGLE_CLIENT_EMAIL + GOOGLE_PRIVATE_KEY) are required")
		}
	case StorePostgres:
		if cfg.Postgres.URL == "" {
			problems = append(problems, "postgres.url (DATABASE_URL) is required")
		}
	case StoreDynamoDB:
		if cfg.DynamoDB.Table == "" {
			problems = append(problems, "dynamodb.table (CONTACT_DYNAMODB_TABLE) is required")
		}
	case StoreLocal:
	default:
		problems = append(problems, fmt.Sprintf("unknown store type %q", cfg.Store.Type))
	}

	switch cfg.Email.Provider {
	case EmailProviderSES, EmailProviderLog:
	default:
		problems = append(problems, fmt.Sprintf("unknown email provider %q", cfg.Email.Provider))
	}
	if cfg.Email.Provider == EmailProviderSES && cfg.Email.FromEmail == "" {
		problems = append(problems, "email.from_email (EMAIL_FROM) is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
