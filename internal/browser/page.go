package browser

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a locator matches no element.
var ErrNotFound = errors.New("element not found")

// Box is an element's bounding box in CSS pixels.
type Box struct {
	X, Y, Width, Height float64
}

// Center returns the middle point of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Page is one browser tab. Single-element operations act on the first match of
// the locator and return ErrNotFound when there is none; IsVisible and IsEnabled
// report false instead.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	Count(ctx context.Context, loc Locator) (int, error)
	Texts(ctx context.Context, loc Locator) ([]string, error)
	Attribute(ctx context.Context, loc Locator, name string) (string, error)
	InputValue(ctx context.Context, loc Locator) (string, error)
	OuterHTML(ctx context.Context, loc Locator) (string, error)
	BoundingBox(ctx context.Context, loc Locator) (Box, error)
	IsVisible(ctx context.Context, loc Locator) (bool, error)
	IsEnabled(ctx context.Context, loc Locator) (bool, error)

	Hover(ctx context.Context, loc Locator) error
	Click(ctx context.Context, loc Locator) error
	Fill(ctx context.Context, loc Locator, value string) error
	MouseMove(ctx context.Context, x, y float64) error
	PressKey(ctx context.Context, key string) error
	// UploadViaChooser arms file-chooser interception, clicks trigger and
	// supplies paths to the chooser it opens.
	UploadViaChooser(ctx context.Context, trigger Locator, paths ...string) error

	Close(ctx context.Context) error
}

// FirstText returns the text of the first element matching loc.
func FirstText(ctx context.Context, p Page, loc Locator) (string, error) {
	texts, err := p.Texts(ctx, loc)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return texts[0], nil
}

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// ContextOptions configures an isolated browsing context.
type ContextOptions struct {
	UserAgent    string
	Locale       string
	TimezoneID   string
	Viewport     Viewport
	StorageState *StorageState
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	ExecPath string
	Headless bool
}

// Driver starts browser processes.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	Close() error
}

// Browser is a running browser process.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error)
	Close(ctx context.Context) error
}

// BrowserContext is an isolated set of cookies, storage and permissions.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
}
