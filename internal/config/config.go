package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          int    `yaml:"port"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address            string `yaml:"address"`
		Password           string `yaml:"password"`
		DB                 int    `yaml:"db"`
		CalendarTTLSeconds int    `yaml:"calendar_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		HorizonDays           int `yaml:"horizon_days"`
		CancelCutoffHours     int `yaml:"cancel_cutoff_hours"`
		ReminderLeadHours     int `yaml:"reminder_lead_hours"`
		ReminderWindowMinutes int `yaml:"reminder_window_minutes"`
		AutoCancelLeadHours   int `yaml:"auto_cancel_lead_hours"`
		AutoCancelWindowMin   int `yaml:"auto_cancel_window_minutes"`
	} `yaml:"booking"`

	Waitlist struct {
		MaxActivePerDay int `yaml:"max_active_per_day"`
	} `yaml:"waitlist"`

	Scheduler struct {
		ReminderIntervalMinutes   int `yaml:"reminder_interval_minutes"`
		AutoCancelIntervalMinutes int `yaml:"auto_cancel_interval_minutes"`
		ExpiryIntervalMinutes     int `yaml:"expiry_interval_minutes"`
	} `yaml:"scheduler"`

	Notify struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
		MaxRetries    int     `yaml:"max_retries"`
	} `yaml:"notify"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/bookit.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) BookingHorizon() time.Duration {
	if c.Booking.HorizonDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(c.Booking.HorizonDays) * 24 * time.Hour
}

func (c *Config) CancelCutoff() time.Duration {
	if c.Booking.CancelCutoffHours <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Booking.CancelCutoffHours) * time.Hour
}

func (c *Config) ReminderLead() time.Duration {
	if c.Booking.ReminderLeadHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.ReminderLeadHours) * time.Hour
}

func (c *Config) ReminderWindow() time.Duration {
	if c.Booking.ReminderWindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Booking.ReminderWindowMinutes) * time.Minute
}

func (c *Config) AutoCancelLead() time.Duration {
	if c.Booking.AutoCancelLeadHours <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Booking.AutoCancelLeadHours) * time.Hour
}

func (c *Config) AutoCancelWindow() time.Duration {
	if c.Booking.AutoCancelWindowMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.AutoCancelWindowMin) * time.Minute
}

func (c *Config) WaitlistMaxActivePerDay() int {
	if c.Waitlist.MaxActivePerDay <= 0 {
		return 3
	}
	return c.Waitlist.MaxActivePerDay
}

func (c *Config) ReminderSweepInterval() time.Duration {
	if c.Scheduler.ReminderIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Scheduler.ReminderIntervalMinutes) * time.Minute
}

func (c *Config) AutoCancelSweepInterval() time.Duration {
	if c.Scheduler.AutoCancelIntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Scheduler.AutoCancelIntervalMinutes) * time.Minute
}

func (c *Config) ExpirySweepInterval() time.Duration {
	if c.Scheduler.ExpiryIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Scheduler.ExpiryIntervalMinutes) * time.Minute
}

func (c *Config) CalendarCacheTTL() time.Duration {
	if c.Redis.CalendarTTLSeconds <= 0 {
		// Short TTL: sweeps free slots without touching the cache, so
		// entries must age out quickly on their own.
		return 60 * time.Second
	}
	return time.Duration(c.Redis.CalendarTTLSeconds) * time.Second
}
