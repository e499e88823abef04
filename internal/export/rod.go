package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodRenderer rasterizes with headless Chrome. The browser is launched on
// first use, or attached to when a DevTools URL is configured.
type RodRenderer struct {
	bin        string
	controlURL string
	scale      float64
	logger     *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func NewRodRenderer(bin, controlURL string, logger *slog.Logger) *RodRenderer {
	return &RodRenderer{
		bin:        bin,
		controlURL: controlURL,
		scale:      2,
		logger:     logger,
	}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return r.browser, nil
		}
		r.logger.Warn("stale browser connection, reconnecting")
		_ = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}

	controlURL := r.controlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Set("disable-gpu")
		if r.bin != "" {
			l = l.Bin(r.bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launching chrome: %w", err)
		}
		r.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}
	r.logger.Info("browser connected", "launched", r.controlURL == "")
	r.browser = b
	return b, nil
}

func (r *RodRenderer) Rasterize(ctx context.Context, html []byte, width int) ([]byte, error) {
	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	// The tab is opened and closed outside ctx so that a render past its
	// deadline still gets its tab closed.
	tab, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			r.logger.Warn("closing page", "error", err)
		}
	}()
	page := tab.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            600,
		DeviceScaleFactor: r.scale,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for load: %w", err)
	}

	png, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return png, nil
}

// Close disconnects from the browser and kills it if this renderer started it.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
