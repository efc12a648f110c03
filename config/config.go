package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"morsel-sales/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputFiles      []string `envconfig:"INPUT_FILES" default:"./data"`
	TargetProduct   string   `envconfig:"TARGET_PRODUCT" default:"pink morsel" validate:"required"`
	PriceHikeDate   string   `envconfig:"PRICE_HIKE_DATE" default:"2021-01-15" validate:"required,datetime=2006-01-02"`
	CurrencySymbols []string `envconfig:"CURRENCY_SYMBOLS" default:"$,£,€"`
	Regions         []string `envconfig:"REGIONS" default:"north,east,south,west" validate:"dive,required"`

	MovingAverageWindow int `envconfig:"MOVING_AVERAGE_WINDOW" default:"7" validate:"gte=0"`
	LoadConcurrency     int `envconfig:"LOAD_CONCURRENCY" default:"4" validate:"gte=1,lte=64"`

	CSVOutputPath string `envconfig:"CSV_OUTPUT_PATH" default:"./output/pink_morsel_sales.csv"`
	SQLitePath    string `envconfig:"SQLITE_PATH"`

	PostgresEnabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost" validate:"required_if=PostgresEnabled true"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432" validate:"omitempty,numeric"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"morsel"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"morsel123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"sales_db"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	MaxRetries int `envconfig:"MAX_RETRIES" default:"3" validate:"gte=1"`

	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8050" validate:"required"`
	ChromeBin string `envconfig:"CHROME_BIN"`
	LogDebug  bool   `envconfig:"LOG_DEBUG" default:"false"`
}

// Load reads the .env file, decodes the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv decodes and validates the process environment without touching
// any .env file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Cutoff returns PRICE_HIKE_DATE as midnight UTC.
func (c *Config) Cutoff() time.Time {
	t, err := time.Parse(models.DateLayout, c.PriceHikeDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
