package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"

	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/logging"
	"github.com/yuya1213/dental-clinic-app/internal/notify"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
)

type Config struct {
	HTTPAddr    string         `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string         `env:"DB_PATH" envDefault:"data/clinicdiag.db"`
	DatabaseURL string         `env:"DATABASE_URL"`
	RedisURL    string         `env:"REDIS_URL"`
	SPADir      string         `env:"SPA_DIR"`
	SessionTTL  time.Duration  `env:"SESSION_TTL" envDefault:"2h"`
	TimeZone    string         `env:"TIME_ZONE" envDefault:"Asia/Tokyo"` // decides a submission's default date
	Log         logging.Config `envPrefix:"LOG_"`

	Export  Export          `envPrefix:"EXPORT_"`
	Profile profile.Profile `envPrefix:"PROFILE_"`
	SMTP    notify.Config   `envPrefix:"SMTP_"`

	loc *time.Location
}

type Export struct {
	PDFMode       export.PDFMode     `env:"PDF_MODE" envDefault:"structured"`
	Capture       export.CaptureMode `env:"CAPTURE" envDefault:"isolated"`
	RenderTimeout time.Duration      `env:"RENDER_TIMEOUT" envDefault:"30s"`
	FontPath      string             `env:"FONT_PATH"`
	ChromeBin     string             `env:"CHROME_BIN"`
	ChromeURL     string             `env:"CHROME_URL"`
	ViewportWidth int                `env:"VIEWPORT_WIDTH" envDefault:"800"`
	LockTTL       time.Duration      `env:"LOCK_TTL" envDefault:"2m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Export.ViewportWidth <= 0 {
		return nil, fmt.Errorf("EXPORT_VIEWPORT_WIDTH must be positive, got %d", cfg.Export.ViewportWidth)
	}
	if cfg.Export.LockTTL <= 0 {
		return nil, fmt.Errorf("EXPORT_LOCK_TTL must be positive, got %s", cfg.Export.LockTTL)
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TIME_ZONE: %w", err)
	}
	cfg.loc = loc
	return &cfg, nil
}

// Location is the loaded TIME_ZONE.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Now returns the current time in the configured zone.
func (c *Config) Now() time.Time {
	return time.Now().In(c.Location())
}
