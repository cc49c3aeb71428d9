package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds everything the terminal reads from the environment.
type Config struct {
	HTTPPort       int      `envconfig:"HTTP_PORT" default:"8080"`
	BaseURL        string   `envconfig:"BASE_URL" default:"http://localhost:8080"`
	DBDriver       string   `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN          string   `envconfig:"DB_DSN" default:"pos.db"`
	JWTSecret      string   `envconfig:"JWT_SECRET"`
	AdminPIN       string   `envconfig:"ADMIN_PIN" default:"1234"`
	AdminPINHash   string   `envconfig:"ADMIN_PIN_HASH"`
	GeminiAPIKey   string   `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string   `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-001"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"text"`
	CurrencySymbol string   `envconfig:"CURRENCY_SYMBOL" default:"₱"`
	SeedDefaults   bool     `envconfig:"SEED_DEFAULTS" default:"true"`
	WebDir         string   `envconfig:"WEB_DIR" default:"./web"`
	ShopName       string   `envconfig:"SHOP_NAME" default:"POS Terminal"`
	TimeZone       string   `envconfig:"TIME_ZONE" default:"Local"`

	MaxImageBytes     int64 `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`
	ImageMaxDimension int   `envconfig:"IMAGE_MAX_DIMENSION" default:"800"`
	ImageQuality      int   `envconfig:"IMAGE_QUALITY" default:"70"`
	NotificationLimit int   `envconfig:"NOTIFICATION_LIMIT" default:"50"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using the environment only")
	}
	return FromEnv()
}

// FromEnv decodes and checks the configuration without touching .env.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to process env var")
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverMySQL {
		return errors.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return errors.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}
	if c.ImageMaxDimension <= 0 {
		return errors.New("IMAGE_MAX_DIMENSION must be positive")
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return errors.New("IMAGE_QUALITY must be between 1 and 100")
	}
	if c.NotificationLimit <= 0 {
		return errors.New("NOTIFICATION_LIMIT must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return errors.Wrapf(err, "TIME_ZONE %q", c.TimeZone)
	}
	return nil
}

// Location is the zone days and business hours are counted in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
