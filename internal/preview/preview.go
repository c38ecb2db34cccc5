// Package preview captures the rendered day view as a PNG through
// headless Chromium, for e-ink frames and other display surfaces that can
// only show a static image.
package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default capture parameters. The height covers the page header, the
// all-day lane and the fixed 1440px hour grid of /view/day.
const (
	DefaultWidth      = 900
	DefaultHeight     = 1600
	DefaultTimeoutSec = 30
)

// Options defines parameters for one screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/view/day".
	URL string

	// OutputPath is where the PNG screenshot will be written, e.g.
	// "/var/lib/daygrid/preview.png".
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration

	// BasicAuthUser and BasicAuthPass, when both set, are sent as an
	// Authorization header so a credential-protected server can still be
	// captured. Chromium drops credentials embedded in the URL itself.
	BasicAuthUser string
	BasicAuthPass string
}

// Capture launches (or attaches to) a headless Chromium instance via
// chromedp, navigates to opts.URL, waits for the DOM to signal that
// rendering is complete, and then writes a PNG screenshot at the
// requested resolution.
//
// Rendering-complete condition:
//   - The day view marks its body with data-ready="true"; capture waits
//     until `[data-ready="true"]` is visible before taking the shot.
func Capture(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("preview: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("preview: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	// Apply timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.BasicAuthUser != "" && opts.BasicAuthPass != "" {
		token := base64.StdEncoding.EncodeToString([]byte(opts.BasicAuthUser + ":" + opts.BasicAuthPass))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + token}),
		)
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("preview: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("preview: failed to write PNG: %w", err)
	}

	return nil
}
