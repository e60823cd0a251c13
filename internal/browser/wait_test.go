package browser_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/browser/browsertest"
)

const fixture = `<html><body>
	<div id="overlay" class="loadingOverlay">Loading</div>
	<button id="scan" disabled>Scan</button>
	<div id="hidden-box" style="display: none">secret</div>
</body></html>`

func TestPoll_ZeroTimeoutChecksOnce(t *testing.T) {
	calls := 0
	err := browser.Poll(context.Background(), time.Millisecond, 0, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.Equal(t, 1, calls)
}

func TestPoll_ReportsLastError(t *testing.T) {
	boom := errors.New("boom")
	err := browser.Poll(context.Background(), time.Millisecond, 5*time.Millisecond, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.ErrorIs(t, err, boom)
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := browser.Poll(ctx, time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitFor_States(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New("https://app.example.com/", fixture)

	assert.NoError(t, browser.WaitFor(ctx, page, browser.ID("div", "overlay"), browser.StateVisible, 0))
	assert.NoError(t, browser.WaitFor(ctx, page, browser.ID("div", "hidden-box"), browser.StateHidden, 0))
	assert.NoError(t, browser.WaitFor(ctx, page, browser.ID("div", "nothing"), browser.StateHidden, 0), "absent counts as hidden")
	assert.NoError(t, browser.WaitFor(ctx, page, browser.ID("button", "scan"), browser.StateAttached, 0))

	err := browser.WaitFor(ctx, page, browser.ID("button", "scan"), browser.StateEnabled, 0)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.Contains(t, err.Error(), "enabled")
}

func TestWaitFor_BecomesHidden(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New("https://app.example.com/", fixture)
	overlay := browser.ID("div", "overlay")

	reads := 0
	page.BeforeRead(func(p *browsertest.Page) error {
		reads++
		if reads == 3 {
			return p.SetAttr(overlay, "hidden", "")
		}
		return nil
	})

	require.NoError(t, browser.WaitFor(ctx, page, overlay, browser.StateHidden, 2*time.Second))
}

func TestWaitForURL(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New("https://app.example.com/dashboard", fixture)
	re := regexp.MustCompile(`/match-report`)

	err := browser.WaitForURL(ctx, page, re, 0)
	assert.ErrorIs(t, err, browser.ErrTimeout)

	page.Show("https://app.example.com/match-report?id=7", fixture)
	assert.NoError(t, browser.WaitForURL(ctx, page, re, 0))
}

func TestFirstText(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New("https://app.example.com/", fixture)

	text, err := browser.FirstText(ctx, page, browser.ID("div", "overlay"))
	require.NoError(t, err)
	assert.Equal(t, "Loading", text)

	_, err = browser.FirstText(ctx, page, browser.ID("div", "missing"))
	assert.ErrorIs(t, err, browser.ErrNotFound)
}
