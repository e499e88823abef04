package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/config"
	"github.com/yuya1213/dental-clinic-app/internal/export"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.Export.PDFMode != export.PDFStructured || cfg.Export.Capture != export.CaptureIsolated {
		t.Errorf("export modes = %q/%q", cfg.Export.PDFMode, cfg.Export.Capture)
	}
	if cfg.Export.RenderTimeout != 30*time.Second {
		t.Errorf("render timeout = %v", cfg.Export.RenderTimeout)
	}
	if cfg.Profile.Name != "株式会社メディカルネット" {
		t.Errorf("profile name = %q", cfg.Profile.Name)
	}
	if cfg.SMTP.Enabled() {
		t.Error("smtp enabled without a host")
	}
	if got := cfg.Now().Location().String(); got != "Asia/Tokyo" {
		t.Errorf("now location = %q", got)
	}
}

func TestLoadTimeZone(t *testing.T) {
	t.Setenv("TIME_ZONE", "UTC")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("EXPORT_PDF_MODE", "hybrid")
	t.Setenv("EXPORT_CAPTURE", "inplace")
	t.Setenv("EXPORT_RENDER_TIMEOUT", "5s")
	t.Setenv("PROFILE_NAME", "Example Dental Support")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SESSION_TTL", "15m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.Log.Level)
	}
	if cfg.Export.PDFMode != export.PDFHybrid || cfg.Export.Capture != export.CaptureInPlace {
		t.Errorf("export modes = %q/%q", cfg.Export.PDFMode, cfg.Export.Capture)
	}
	if cfg.Export.RenderTimeout != 5*time.Second || cfg.SessionTTL != 15*time.Minute {
		t.Errorf("durations = %v/%v", cfg.Export.RenderTimeout, cfg.SessionTTL)
	}
	if cfg.Profile.Name != "Example Dental Support" || !cfg.SMTP.Enabled() || cfg.SMTP.Port != 587 {
		t.Errorf("nested config = %+v / %+v", cfg.Profile, cfg.SMTP)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"EXPORT_PDF_MODE":       "docx",
		"EXPORT_CAPTURE":        "offscreen",
		"EXPORT_VIEWPORT_WIDTH": "0",
		"SESSION_TTL":           "soon",
		"EXPORT_LOCK_TTL":       "0s",
		"TIME_ZONE":             "Mars/Olympus_Mons",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := config.Load(); err == nil {
				t.Errorf("%s=%s: expected error", key, val)
			}
		})
	}
}
