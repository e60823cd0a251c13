package interaction

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/browser/browsertest"
)

const form = `<html><body>
<div id="overlay" hidden>Loading</div>
<input id="company" value="Acme">
<button id="save" data-box="300,400,100,40">Save</button>
<button id="off" disabled>Off</button>
</body></html>`

var (
	saveButton = browser.ID("button", "save")
	company    = browser.ID("input", "company")
	overlay    = browser.ID("div", "overlay")
)

type sleepLog struct {
	calls []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestDriver(page browser.Page, sleeps *sleepLog, opts ...Option) *Driver {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSeed(42),
		WithRetry(3, 0),
		WithProbeTimeout(0),
		WithSleep(sleeps.sleep),
	}
	return New(page, append(base, opts...)...)
}

func TestDriver_ClickPaces(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	sleeps := &sleepLog{}
	d := newTestDriver(page, sleeps, WithDelays(400*time.Millisecond, 1200*time.Millisecond))

	assert.True(t, d.Click(context.Background(), saveButton))
	assert.Equal(t, 1, page.ClickCount(saveButton))
	require.Len(t, sleeps.calls, 1)
	assert.GreaterOrEqual(t, sleeps.calls[0], 400*time.Millisecond)
	assert.LessOrEqual(t, sleeps.calls[0], 1200*time.Millisecond)
}

func TestDriver_RetriesTransientFailures(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	page.FailNext(browsertest.OpClick, 2)
	d := newTestDriver(page, &sleepLog{})

	require.NoError(t, d.MustClick(context.Background(), saveButton))
	assert.Equal(t, 1, page.ClickCount(saveButton))
}

func TestDriver_ExhaustedRetries(t *testing.T) {
	tests := []struct {
		name   string
		action func(d *Driver) bool
	}{
		{"click", func(d *Driver) bool { return d.Click(context.Background(), saveButton) }},
		{"hover", func(d *Driver) bool { return d.Hover(context.Background(), saveButton) }},
		{"fill", func(d *Driver) bool { return d.Fill(context.Background(), company, "Globex") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New("https://app.example.com/", form)
			for _, op := range []browsertest.Op{browsertest.OpClick, browsertest.OpHover, browsertest.OpFill} {
				page.FailNext(op, 3)
			}
			assert.False(t, tt.action(newTestDriver(page, &sleepLog{})))
		})
	}
}

func TestDriver_MustReturnsError(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	err := d.MustClick(context.Background(), browser.ID("button", "off"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	page.FailNext(browsertest.OpKey, 3)
	assert.ErrorIs(t, d.MustPress(context.Background(), "Escape"), browsertest.ErrInjected)
}

func TestDriver_Fill(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	assert.True(t, d.Fill(context.Background(), company, "Globex"))
	v, err := page.InputValue(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, "Globex", v)
}

func TestDriver_Probe(t *testing.T) {
	tests := []struct {
		name    string
		loc     browser.Locator
		timeout time.Duration
		setup   func(p *browsertest.Page)
		want    ProbeResult
	}{
		{name: "visible element", loc: saveButton, want: Present},
		{name: "hidden element", loc: overlay, want: Absent},
		{name: "no match", loc: browser.ID("div", "nope"), want: Absent},
		{
			name:  "query failure",
			loc:   saveButton,
			setup: func(p *browsertest.Page) { p.FailNext(browsertest.OpCount, 1) },
			want:  TimedOut,
		},
		{
			name:    "appears while waiting",
			loc:     overlay,
			timeout: 2 * time.Second,
			setup: func(p *browsertest.Page) {
				reads := 0
				p.BeforeRead(func(p *browsertest.Page) error {
					reads++
					if reads == 2 {
						return p.RemoveAttr(overlay, "hidden")
					}
					return nil
				})
			},
			want: Present,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New("https://app.example.com/", form)
			if tt.setup != nil {
				tt.setup(page)
			}
			d := newTestDriver(page, &sleepLog{})
			assert.Equal(t, tt.want, d.Probe(context.Background(), tt.loc, tt.timeout))
		})
	}
}

func TestDriver_ProbeCancelledContext(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, TimedOut, d.Probe(ctx, overlay, time.Second))
}

func TestDriver_Exists(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	assert.True(t, d.Exists(context.Background(), saveButton))
	assert.False(t, d.Exists(context.Background(), overlay))
}

func TestDriver_ClickWithHumanMotion(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	require.NoError(t, d.MustClickWithHumanMotion(context.Background(), saveButton))
	assert.Equal(t, 1, page.ClickCount(saveButton))
	assert.Equal(t, []browser.Locator{saveButton}, page.Hovered)
	// one jump, at least 2*4 jitter steps, at least 8 glide steps
	assert.GreaterOrEqual(t, page.Moves, 17)
	assert.Equal(t, 350.0, d.x)
	assert.Equal(t, 420.0, d.y)
}

func TestDriver_ClickWithHumanMotionMissingTarget(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	assert.False(t, d.ClickWithHumanMotion(context.Background(), browser.ID("button", "missing")))
	assert.Zero(t, page.Moves, "no motion without a target")
}

func TestDriver_FillWithHumanMotion(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	assert.True(t, d.FillWithHumanMotion(context.Background(), company, "Initech"))
	got, ok := page.FilledValue(company)
	assert.True(t, ok)
	assert.Equal(t, "Initech", got)
	assert.Equal(t, 1, page.ClickCount(company))
}

func TestDriver_MustUpload(t *testing.T) {
	page := browsertest.New("https://app.example.com/", form)
	d := newTestDriver(page, &sleepLog{})

	require.NoError(t, d.MustUpload(context.Background(), saveButton, "/tmp/resume.docx"))
	require.Len(t, page.Uploads, 1)
	assert.Equal(t, []string{"/tmp/resume.docx"}, page.Uploads[0].Paths)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestProbeResult_String(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "absent", Absent.String())
	assert.Equal(t, "timed out", TimedOut.String())
}
