package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/resume-scanner/internal/browser"
)

// ErrLaunch and ErrNewContext are the failures Driver injects.
var (
	ErrLaunch     = errors.New("launch failed")
	ErrNewContext = errors.New("context creation failed")
)

// Driver is a fake browser.Driver that hands out a fixed Page and records teardown.
type Driver struct {
	Page *Page

	// LaunchFailures and ContextFailures fail that many calls before succeeding; -1 fails forever.
	LaunchFailures  int
	ContextFailures int

	mu             sync.Mutex
	Launches       int
	ContextCalls   int
	LastContext    browser.ContextOptions
	DriverClosed   bool
	BrowsersClosed int
	ContextsClosed int
	// Teardown records close calls in order: "page", "context", "browser", "driver".
	Teardown []string
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver returns a driver whose contexts open page.
func NewDriver(page *Page) *Driver {
	return &Driver{Page: page}
}

func (d *Driver) record(step string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Teardown = append(d.Teardown, step)
}

func (d *Driver) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Launches++
	if d.LaunchFailures != 0 {
		if d.LaunchFailures > 0 {
			d.LaunchFailures--
		}
		return nil, ErrLaunch
	}
	return &fakeBrowser{d: d}, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.DriverClosed = true
	d.mu.Unlock()
	d.record("driver")
	return nil
}

type fakeBrowser struct {
	d *Driver
}

func (b *fakeBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.BrowserContext, error) {
	d := b.d
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ContextCalls++
	d.LastContext = opts
	if d.ContextFailures != 0 {
		if d.ContextFailures > 0 {
			d.ContextFailures--
		}
		return nil, ErrNewContext
	}
	return &fakeContext{d: d}, nil
}

func (b *fakeBrowser) Close(ctx context.Context) error {
	b.d.mu.Lock()
	b.d.BrowsersClosed++
	b.d.mu.Unlock()
	b.d.record("browser")
	return nil
}

type fakeContext struct {
	d *Driver
}

func (c *fakeContext) NewPage(ctx context.Context) (browser.Page, error) {
	return &recordingPage{Page: c.d.Page, d: c.d}, nil
}

func (c *fakeContext) Close(ctx context.Context) error {
	c.d.mu.Lock()
	c.d.ContextsClosed++
	c.d.mu.Unlock()
	c.d.record("context")
	return nil
}

// recordingPage notes the page close in the driver's teardown log.
type recordingPage struct {
	*Page
	d *Driver
}

func (p *recordingPage) Close(ctx context.Context) error {
	err := p.Page.Close(ctx)
	p.d.record("page")
	return err
}
