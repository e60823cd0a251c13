package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// ChooserTimeout bounds the wait for a file chooser after its trigger is clicked.
const ChooserTimeout = 5 * time.Second

// ChromeDriver starts Chrome through a chromedp exec allocator.
// The allocator is created on the first Launch and torn down by Close.
type ChromeDriver struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeDriver creates a driver. No process is started until Launch.
func NewChromeDriver() *ChromeDriver {
	return &ChromeDriver{}
}

// Launch starts a browser process.
func (d *ChromeDriver) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if d.allocCtx == nil {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}
		// The allocator outlives the call that opened it
		d.allocCtx, d.cancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	}

	browserCtx, cancel := chromedp.NewContext(d.allocCtx)
	// The first Run binds the browser to browserCtx, so it must not get a derived context
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return &chromeBrowser{ctx: browserCtx, cancel: cancel}, nil
}

// Close stops the allocator, killing any process it still owns.
func (d *ChromeDriver) Close() error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
		d.allocCtx = nil
	}
	return nil
}

type chromeBrowser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (b *chromeBrowser) NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx, contextSetup(opts))
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return &chromeContext{ctx: tabCtx, cancel: cancel}, nil
}

func (b *chromeBrowser) Close(ctx context.Context) error {
	defer b.cancel()
	if err := chromedp.Cancel(b.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// contextSetup seeds identity, locale, viewport and stored credentials on a fresh
// context. No permission is granted.
func contextSetup(opts ContextOptions) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if c := chromedp.FromContext(ctx); c != nil && c.BrowserContextID != "" {
			if err := cdpbrowser.ResetPermissions().WithBrowserContextID(c.BrowserContextID).Do(ctx); err != nil {
				return fmt.Errorf("reset permissions: %w", err)
			}
		}
		if opts.UserAgent != "" {
			ua := emulation.SetUserAgentOverride(opts.UserAgent)
			if opts.Locale != "" {
				ua = ua.WithAcceptLanguage(opts.Locale)
			}
			if err := ua.Do(ctx); err != nil {
				return fmt.Errorf("user agent override: %w", err)
			}
		}
		if opts.Locale != "" {
			if err := emulation.SetLocaleOverride().WithLocale(opts.Locale).Do(ctx); err != nil {
				return fmt.Errorf("locale override: %w", err)
			}
		}
		if opts.TimezoneID != "" {
			if err := emulation.SetTimezoneOverride(opts.TimezoneID).Do(ctx); err != nil {
				return fmt.Errorf("timezone override: %w", err)
			}
		}
		if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
			if err := emulation.SetDeviceMetricsOverride(int64(opts.Viewport.Width), int64(opts.Viewport.Height), 1, false).Do(ctx); err != nil {
				return fmt.Errorf("viewport override: %w", err)
			}
		}
		if err := emulation.SetTouchEmulationEnabled(false).Do(ctx); err != nil {
			return fmt.Errorf("touch emulation: %w", err)
		}
		if opts.StorageState == nil {
			return nil
		}
		if cookies := cookieParams(opts.StorageState.Cookies); len(cookies) > 0 {
			if err := network.SetCookies(cookies).Do(ctx); err != nil {
				return fmt.Errorf("seed cookies: %w", err)
			}
		}
		if script := opts.StorageState.InitScript(); script != "" {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("seed local storage: %w", err)
			}
		}
		return nil
	}
}

func cookieParams(cookies []Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}

type chromeContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	pageTaken bool
	pageOpen  bool
}

// NewPage returns the context's tab. A context carries exactly one page.
func (c *chromeContext) NewPage(ctx context.Context) (Page, error) {
	if c.pageTaken {
		return nil, errors.New("browser context already has a page")
	}
	c.pageTaken = true
	c.pageOpen = true
	return &chromePage{ctx: c.ctx, onClose: func() { c.pageOpen = false }}, nil
}

func (c *chromeContext) Close(ctx context.Context) error {
	defer c.cancel()
	err := chromedp.Cancel(c.ctx)
	if err != nil && (c.pageTaken && !c.pageOpen || errors.Is(err, context.Canceled)) {
		// the tab is already gone; disposing the context is all that was left
		slog.Debug("browser context closed after its page", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}

type chromePage struct {
	ctx     context.Context
	onClose func()
}

// run executes actions on the tab, bounded by the caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// eval runs fn (a JS function taking an XPath) against loc and decodes its result into out.
func (p *chromePage) eval(ctx context.Context, fn string, loc Locator, out any) error {
	script := fmt.Sprintf("(%s)(%s, %s)", fn, resolveXPath, jsonEncode(loc.String()))
	return p.run(ctx, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithSilent(true)
	}))
}

// resolveXPath returns every node matching xp in document order.
const resolveXPath = `(xp) => {
	const r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
	return out;
}`

type firstResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (p *chromePage) first(ctx context.Context, loc Locator, body string) (string, error) {
	fn := fmt.Sprintf(`(nodes, xp) => {
		const n = nodes(xp)[0];
		if (!n) return {found: false, value: ""};
		return {found: true, value: String((() => { %s })() ?? "")};
	}`, body)
	var res firstResult
	if err := p.eval(ctx, fn, loc, &res); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return res.Value, nil
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, chromedp.Location(&u))
	return u, err
}

func (p *chromePage) Count(ctx context.Context, loc Locator) (int, error) {
	var n int
	err := p.eval(ctx, `(nodes, xp) => nodes(xp).length`, loc, &n)
	return n, err
}

func (p *chromePage) Texts(ctx context.Context, loc Locator) ([]string, error) {
	var texts []string
	err := p.eval(ctx, `(nodes, xp) => nodes(xp).map(n => n.innerText ?? n.textContent ?? "")`, loc, &texts)
	return texts, err
}

func (p *chromePage) Attribute(ctx context.Context, loc Locator, name string) (string, error) {
	return p.first(ctx, loc, fmt.Sprintf("return n.getAttribute(%s);", jsonEncode(name)))
}

func (p *chromePage) InputValue(ctx context.Context, loc Locator) (string, error) {
	return p.first(ctx, loc, "return n.value;")
}

func (p *chromePage) OuterHTML(ctx context.Context, loc Locator) (string, error) {
	return p.first(ctx, loc, "return n.outerHTML;")
}

func (p *chromePage) BoundingBox(ctx context.Context, loc Locator) (Box, error) {
	raw, err := p.first(ctx, loc, `
		n.scrollIntoView({block: "center", inline: "center"});
		const r = n.getBoundingClientRect();
		return JSON.stringify({X: r.x, Y: r.y, Width: r.width, Height: r.height});`)
	if err != nil {
		return Box{}, err
	}
	var box Box
	if err := json.Unmarshal([]byte(raw), &box); err != nil {
		return Box{}, fmt.Errorf("decode bounding box: %w", err)
	}
	return box, nil
}

func (p *chromePage) IsVisible(ctx context.Context, loc Locator) (bool, error) {
	var visible bool
	err := p.eval(ctx, `(nodes, xp) => {
		const n = nodes(xp)[0];
		if (!n) return false;
		const s = window.getComputedStyle(n);
		if (s.display === "none" || s.visibility === "hidden" || s.opacity === "0") return false;
		const r = n.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}`, loc, &visible)
	return visible, err
}

func (p *chromePage) IsEnabled(ctx context.Context, loc Locator) (bool, error) {
	var enabled bool
	err := p.eval(ctx, `(nodes, xp) => {
		const n = nodes(xp)[0];
		return !!n && !n.disabled && n.getAttribute("aria-disabled") !== "true";
	}`, loc, &enabled)
	return enabled, err
}

func (p *chromePage) Hover(ctx context.Context, loc Locator) error {
	box, err := p.BoundingBox(ctx, loc)
	if err != nil {
		return err
	}
	x, y := box.Center()
	return p.MouseMove(ctx, x, y)
}

func (p *chromePage) Click(ctx context.Context, loc Locator) error {
	box, err := p.BoundingBox(ctx, loc)
	if err != nil {
		return err
	}
	x, y := box.Center()
	return p.run(ctx, chromedp.MouseClickXY(x, y))
}

func (p *chromePage) Fill(ctx context.Context, loc Locator, value string) error {
	if _, err := p.first(ctx, loc, `
		n.focus();
		if ("value" in n) {
			n.value = "";
			n.dispatchEvent(new Event("input", {bubbles: true}));
		}
		return "";`); err != nil {
		return err
	}
	return p.run(ctx, input.InsertText(value))
}

func (p *chromePage) MouseMove(ctx context.Context, x, y float64) error {
	return p.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

var namedKeys = map[string]string{
	"Escape":    kb.Escape,
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
}

func (p *chromePage) PressKey(ctx context.Context, key string) error {
	if k, ok := namedKeys[key]; ok {
		key = k
	}
	return p.run(ctx, chromedp.KeyEvent(key))
}

func (p *chromePage) UploadViaChooser(ctx context.Context, trigger Locator, paths ...string) error {
	opened := make(chan cdp.BackendNodeID, 1)
	listenCtx, stopListening := context.WithCancel(p.ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if e, ok := ev.(*page.EventFileChooserOpened); ok {
			select {
			case opened <- e.BackendNodeID:
			default:
			}
		}
	})

	if err := p.run(ctx, page.SetInterceptFileChooserDialog(true)); err != nil {
		return fmt.Errorf("intercept file chooser: %w", err)
	}
	defer func() {
		_ = p.run(context.WithoutCancel(ctx), page.SetInterceptFileChooserDialog(false))
	}()

	if err := p.Click(ctx, trigger); err != nil {
		return fmt.Errorf("click upload trigger: %w", err)
	}

	timer := time.NewTimer(ChooserTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: no file chooser opened by %s", ErrTimeout, trigger)
	case nodeID := <-opened:
		return p.run(ctx, dom.SetFileInputFiles(paths).WithBackendNodeID(nodeID))
	}
}

func (p *chromePage) Close(ctx context.Context) error {
	if err := p.run(ctx, page.Close()); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if p.onClose != nil {
		p.onClose()
	}
	return nil
}

func jsonEncode(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
