package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisEventDB         int    `mapstructure:"REDIS_EVENT_DB"`
	RedisDispatchQueueDB int    `mapstructure:"REDIS_DISPATCH_QUEUE_DB"`

	// Offer dispatch settings.
	OfferWindowMinutes      int `mapstructure:"OFFER_WINDOW_MINUTES"`
	MinAdvanceNoticeMinutes int `mapstructure:"MIN_ADVANCE_NOTICE_MINUTES"`

	// Commission settings. Amounts are integer minor currency units.
	DefaultCommissionRate int    `mapstructure:"DEFAULT_COMMISSION_RATE"`
	CommissionRounding    string `mapstructure:"COMMISSION_ROUNDING"`
	PaymentDeadlineHours  int    `mapstructure:"PAYMENT_DEADLINE_HOURS"`
	LateFeeMinorUnits     int64  `mapstructure:"LATE_FEE_MINOR_UNITS"`
	OverdueSweepMinutes   int    `mapstructure:"OVERDUE_SWEEP_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_EVENT_DB", 0)
	viper.SetDefault("REDIS_DISPATCH_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "santai")
	viper.SetDefault("OFFER_WINDOW_MINUTES", 25)
	viper.SetDefault("MIN_ADVANCE_NOTICE_MINUTES", 30)
	viper.SetDefault("DEFAULT_COMMISSION_RATE", 30)
	viper.SetDefault("COMMISSION_ROUNDING", "half-up")
	viper.SetDefault("PAYMENT_DEADLINE_HOURS", 5)
	viper.SetDefault("LATE_FEE_MINOR_UNITS", 50000)
	viper.SetDefault("OVERDUE_SWEEP_MINUTES", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := validate(AppConfig); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
}

func validate(cfg Config) error {
	switch cfg.CommissionRounding {
	case "half-up", "down", "up":
	default:
		return fmt.Errorf("COMMISSION_ROUNDING must be one of half-up, down, up; got %q", cfg.CommissionRounding)
	}
	if cfg.OfferWindowMinutes <= 0 {
		return fmt.Errorf("OFFER_WINDOW_MINUTES must be positive; got %d", cfg.OfferWindowMinutes)
	}
	if cfg.DefaultCommissionRate < 0 || cfg.DefaultCommissionRate > 100 {
		return fmt.Errorf("DEFAULT_COMMISSION_RATE must be within [0,100]; got %d", cfg.DefaultCommissionRate)
	}
	return nil
}

// OfferWindow returns the response window granted to a provider per offer.
func (c Config) OfferWindow() time.Duration {
	return time.Duration(c.OfferWindowMinutes) * time.Minute
}

// MinAdvanceNotice returns the minimum lead time for a new booking's start.
func (c Config) MinAdvanceNotice() time.Duration {
	return time.Duration(c.MinAdvanceNoticeMinutes) * time.Minute
}

// PaymentDeadline returns how long a provider has to settle a commission.
func (c Config) PaymentDeadline() time.Duration {
	return time.Duration(c.PaymentDeadlineHours) * time.Hour
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
