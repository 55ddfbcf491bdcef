package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines booking service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"BOOKING_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"BOOKING_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"BOOKING_REDIS_ADDR"`
		Password string `yaml:"password" env:"BOOKING_REDIS_PASSWORD"`
		Queue    string `yaml:"queue" env:"BOOKING_NOTIFY_QUEUE"`
	} `yaml:"redis"`
	QR struct {
		Secret string `yaml:"secret" env:"BOOKING_QR_SECRET"`
	} `yaml:"qr"`
	Policy struct {
		MaxHorizonDays         int `yaml:"maxHorizonDays" env:"BOOKING_MAX_HORIZON_DAYS"`
		ModifyLockHours        int `yaml:"modifyLockHours" env:"BOOKING_MODIFY_LOCK_HOURS"`
		EarliestCheckInMinutes int `yaml:"earliestCheckinMinutes" env:"BOOKING_EARLIEST_CHECKIN_MINUTES"`
		GraceMinutes           int `yaml:"graceMinutes" env:"BOOKING_GRACE_MINUTES"`
	} `yaml:"policy"`
	Regenerator struct {
		IntervalHours int  `yaml:"intervalHours" env:"BOOKING_REGEN_INTERVAL_HOURS"`
		HorizonDays   int  `yaml:"horizonDays" env:"BOOKING_REGEN_HORIZON_DAYS"`
		Heal          bool `yaml:"heal" env:"BOOKING_REGEN_HEAL"`
	} `yaml:"regenerator"`
	Sweeper struct {
		Enabled         bool `yaml:"enabled" env:"BOOKING_SWEEPER_ENABLED"`
		IntervalSeconds int  `yaml:"intervalSeconds" env:"BOOKING_SWEEPER_INTERVAL_SECONDS"`
		PageSize        int  `yaml:"pageSize" env:"BOOKING_SWEEPER_PAGE_SIZE"`
	} `yaml:"sweeper"`
}

// Load reads configuration from the optional YAML file plus env overrides and
// applies service defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Policy.MaxHorizonDays = 14
	cfg.Policy.ModifyLockHours = 2
	cfg.Policy.EarliestCheckInMinutes = 15
	cfg.Policy.GraceMinutes = 15
	cfg.Regenerator.IntervalHours = 6
	cfg.Regenerator.HorizonDays = 14
	cfg.Regenerator.Heal = true
	cfg.Sweeper.Enabled = true
	cfg.Sweeper.IntervalSeconds = 60
	cfg.Sweeper.PageSize = 100
	cfg.Redis.Queue = "notifications:outbox"

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.QR.Secret) == "" {
		return nil, errors.New("config: qr secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RegenerateInterval returns the regenerator period as a duration.
func (c *Config) RegenerateInterval() time.Duration {
	hours := c.Regenerator.IntervalHours
	if hours <= 0 {
		hours = 6
	}
	return time.Duration(hours) * time.Hour
}

// SweepInterval returns the no-show sweeper period as a duration.
func (c *Config) SweepInterval() time.Duration {
	seconds := c.Sweeper.IntervalSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}
