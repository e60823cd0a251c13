package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrTimeout is returned when a bounded wait expires.
var ErrTimeout = errors.New("timed out")

// DefaultPollInterval is how often waits re-check the page.
const DefaultPollInterval = 100 * time.Millisecond

// State is an element condition a wait can block on.
type State int

const (
	// StateAttached waits until at least one element matches
	StateAttached State = iota
	// StateVisible waits until the first match is visible
	StateVisible
	// StateHidden waits until no match is visible (or none exists)
	StateHidden
	// StateEnabled waits until the first match is enabled
	StateEnabled
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	case StateEnabled:
		return "enabled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Poll calls cond every interval until it reports true or timeout elapses.
// cond always runs at least once, so a zero timeout is a single check.
// On expiry the returned error wraps ErrTimeout and the last error cond reported.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// WaitFor blocks until loc reaches state or timeout elapses.
func WaitFor(ctx context.Context, p Page, loc Locator, state State, timeout time.Duration) error {
	err := Poll(ctx, DefaultPollInterval, timeout, func(ctx context.Context) (bool, error) {
		return checkState(ctx, p, loc, state)
	})
	if err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", loc, state, err)
	}
	return nil
}

func checkState(ctx context.Context, p Page, loc Locator, state State) (bool, error) {
	switch state {
	case StateAttached:
		n, err := p.Count(ctx, loc)
		return n > 0, err
	case StateVisible:
		return p.IsVisible(ctx, loc)
	case StateHidden:
		n, err := p.Count(ctx, loc)
		if err != nil || n == 0 {
			return err == nil, err
		}
		visible, err := p.IsVisible(ctx, loc)
		return !visible, err
	case StateEnabled:
		return p.IsEnabled(ctx, loc)
	}
	return false, fmt.Errorf("unknown state %s", state)
}

// WaitForURL blocks until the page URL matches re or timeout elapses.
func WaitForURL(ctx context.Context, p Page, re *regexp.Regexp, timeout time.Duration) error {
	err := Poll(ctx, DefaultPollInterval, timeout, func(ctx context.Context) (bool, error) {
		u, err := p.URL(ctx)
		return err == nil && re.MatchString(u), err
	})
	if err != nil {
		return fmt.Errorf("waiting for url %s: %w", re, err)
	}
	return nil
}
