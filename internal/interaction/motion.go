package interaction

import (
	"context"
	"time"

	"github.com/jonathan/resume-scanner/internal/browser"
)

// MustClickWithHumanMotion wanders the pointer, glides it to the centre of loc
// and then hovers and clicks. The path is complete before the click fires.
func (d *Driver) MustClickWithHumanMotion(ctx context.Context, loc browser.Locator) error {
	var box browser.Box
	err := d.retry(ctx, "locate", loc.String(), func() error {
		var err error
		box, err = d.page.BoundingBox(ctx, loc)
		return err
	})
	if err != nil {
		return err
	}

	if err := d.wander(ctx); err != nil {
		return err
	}
	x, y := box.Center()
	if err := d.glide(ctx, x, y, d.intBetween(8, 12)); err != nil {
		return err
	}
	if err := d.sleep(ctx, d.between(200*time.Millisecond, 400*time.Millisecond)); err != nil {
		return err
	}
	return d.MustHoverAndClick(ctx, loc)
}

// ClickWithHumanMotion is the lenient form of MustClickWithHumanMotion.
func (d *Driver) ClickWithHumanMotion(ctx context.Context, loc browser.Locator) bool {
	return d.lenient("click with motion", loc.String(), d.MustClickWithHumanMotion(ctx, loc))
}

// MustFillWithHumanMotion clicks into the field the way a person would, then fills it.
func (d *Driver) MustFillWithHumanMotion(ctx context.Context, loc browser.Locator, value string) error {
	if err := d.MustClickWithHumanMotion(ctx, loc); err != nil {
		return err
	}
	return d.MustFill(ctx, loc, value)
}

// FillWithHumanMotion is the lenient form of MustFillWithHumanMotion.
func (d *Driver) FillWithHumanMotion(ctx context.Context, loc browser.Locator, value string) bool {
	return d.lenient("fill with motion", loc.String(), d.MustFillWithHumanMotion(ctx, loc, value))
}

// wander jumps to a random point near the origin and jitters around it.
func (d *Driver) wander(ctx context.Context) error {
	startX := float64(d.intBetween(0, 100))
	startY := float64(d.intBetween(0, 100))
	if err := d.move(ctx, startX, startY); err != nil {
		return err
	}
	if err := d.Pause(ctx); err != nil {
		return err
	}

	for range d.intBetween(2, 4) {
		x := startX + float64(d.intBetween(-30, 30))
		y := startY + float64(d.intBetween(-30, 30))
		if err := d.glide(ctx, x, y, d.intBetween(4, 7)); err != nil {
			return err
		}
		if err := d.sleep(ctx, d.between(100*time.Millisecond, 300*time.Millisecond)); err != nil {
			return err
		}
	}
	return nil
}

// glide moves the pointer to (x, y) through evenly spaced intermediate points.
func (d *Driver) glide(ctx context.Context, x, y float64, steps int) error {
	if steps < 1 {
		steps = 1
	}
	fromX, fromY := d.x, d.y
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if err := d.move(ctx, fromX+(x-fromX)*t, fromY+(y-fromY)*t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) move(ctx context.Context, x, y float64) error {
	if err := d.page.MouseMove(ctx, x, y); err != nil {
		return err
	}
	d.x, d.y = x, y
	return nil
}
