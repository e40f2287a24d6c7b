package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/render"
)

// ChromeOptions configures the headless Chrome backend.
type ChromeOptions struct {
	// ExecPath overrides browser detection.
	ExecPath      string
	LogoPath      string
	SettleTimeout time.Duration
}

// Chrome renders documents as HTML in one headless tab and screenshots the
// receipt element. The tab is shared, so captures are serialized.
type Chrome struct {
	opts   ChromeOptions
	logger logging.Logger

	mu          sync.Mutex
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logo        string
	started     bool
}

// NewChrome returns a backend that starts the browser on first use.
func NewChrome(opts ChromeOptions, logger logging.Logger) *Chrome {
	return &Chrome{opts: opts, logger: logger}
}

// Name identifies the backend in logs.
func (c *Chrome) Name() string { return "chrome" }

// detectChromePath returns the first browser binary found in the usual places.
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}
	for _, path := range []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// start launches the browser. c.mu must be held.
func (c *Chrome) start() error {
	if c.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	execPath := c.opts.ExecPath
	if execPath == "" {
		execPath = detectChromePath()
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return fmt.Errorf("failed to start chrome: %w", err)
	}

	if c.opts.LogoPath != "" {
		logo, err := LogoDataURL(c.opts.LogoPath)
		if err != nil {
			c.logger.WithError(err).Warn("Logo could not be loaded, using text mark",
				logging.F(logging.FieldFile, c.opts.LogoPath))
		}
		c.logo = logo
	}

	c.tab, c.cancelTab, c.cancelAlloc = tab, cancelTab, cancelAlloc
	c.started = true
	c.logger.Debug("Started headless chrome", logging.F(logging.FieldBackend, c.Name()))
	return nil
}

// Rasterize renders doc in the shared tab at the given device scale factor.
func (c *Chrome) Rasterize(ctx context.Context, doc *render.Document, scale float64) (image.Image, error) {
	if err := waitLayout(ctx, doc, c.opts.SettleTimeout); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(); err != nil {
		return nil, err
	}

	page, err := HTML(doc, c.logo)
	if err != nil {
		return nil, err
	}

	settle := c.opts.SettleTimeout
	if settle <= 0 {
		settle = 5 * time.Second
	}
	runCtx, cancel := context.WithTimeout(c.tab, settle)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	width, height := int64(doc.Width+0.5), int64(doc.Height+0.5)
	var fontsReady bool
	var shot []byte
	err = chromedp.Run(runCtx,
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(scale)),
		chromedp.Navigate(dataURL(page)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &fontsReady,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
		chromedp.WaitVisible("#receipt", chromedp.ByQuery),
		chromedp.Screenshot("#receipt", &shot, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome capture failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.cancelTab()
	c.cancelAlloc()
	c.started = false
	return nil
}
