package fingerprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeDeriver reads navigator.userAgent from a throwaway headless Chrome.
type ChromeDeriver struct {
	ExecPath string
	Timeout  time.Duration
}

// Derive starts Chrome, reads its user agent and shuts it down again.
// The "HeadlessChrome" product token is rewritten so the value matches a headed browser.
func (d ChromeDeriver) Derive(ctx context.Context) (string, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if d.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var ua string
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(`navigator.userAgent`, &ua)); err != nil {
		return "", fmt.Errorf("failed to read user agent: %w", err)
	}
	return strings.Replace(ua, "HeadlessChrome", "Chrome", 1), nil
}
