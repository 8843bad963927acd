package browsersearch

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// scrollStyle names how a persona moves through a results page.
type scrollStyle string

const (
	scrollSmooth   scrollStyle = "smooth"
	scrollQuick    scrollStyle = "quick-scan"
	scrollThorough scrollStyle = "thorough"
	scrollVariable scrollStyle = "variable"
	scrollJumpy    scrollStyle = "jumpy"
)

// persona parameterises the human-behaviour simulation for one run.
type persona struct {
	name        string
	style       scrollStyle
	hoverCount  int           // result links hovered before scrolling on
	hoverDwell  time.Duration // base dwell per hover
	pathSteps   int           // points per mouse path
	shakeAmp    float64       // pixel amplitude of endpoint jitter
	readingTime time.Duration // pause after the page settles
}

var personas = []persona{
	{name: "methodical", style: scrollThorough, hoverCount: 4, hoverDwell: 900 * time.Millisecond, pathSteps: 24, shakeAmp: 2.0, readingTime: 2500 * time.Millisecond},
	{name: "skimmer", style: scrollQuick, hoverCount: 1, hoverDwell: 250 * time.Millisecond, pathSteps: 10, shakeAmp: 5.0, readingTime: 700 * time.Millisecond},
	{name: "researcher", style: scrollSmooth, hoverCount: 3, hoverDwell: 1200 * time.Millisecond, pathSteps: 30, shakeAmp: 1.5, readingTime: 3200 * time.Millisecond},
	{name: "casual", style: scrollVariable, hoverCount: 2, hoverDwell: 600 * time.Millisecond, pathSteps: 16, shakeAmp: 3.5, readingTime: 1500 * time.Millisecond},
	{name: "impatient", style: scrollJumpy, hoverCount: 0, hoverDwell: 0, pathSteps: 8, shakeAmp: 6.0, readingTime: 400 * time.Millisecond},
}

func pickPersona() persona {
	return personas[rand.Intn(len(personas))]
}

// bezierPath returns points along a cubic Bezier curve between two corners
// with randomised control points and per-step jitter.
func bezierPath(from, to proto.Point, steps int, shake float64) []proto.Point {
	c1 := proto.Point{
		X: from.X + (to.X-from.X)*0.3 + (rand.Float64()-0.5)*120,
		Y: from.Y + (to.Y-from.Y)*0.1 + (rand.Float64()-0.5)*120,
	}
	c2 := proto.Point{
		X: from.X + (to.X-from.X)*0.7 + (rand.Float64()-0.5)*120,
		Y: from.Y + (to.Y-from.Y)*0.9 + (rand.Float64()-0.5)*120,
	}

	points := make([]proto.Point, 0, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		x := mt*mt*mt*from.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*to.X
		y := mt*mt*mt*from.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*to.Y
		points = append(points, proto.Point{
			X: x + (rand.Float64()-0.5)*shake,
			Y: y + (rand.Float64()-0.5)*shake,
		})
	}
	return points
}

// stepDelay slows the pointer near the endpoints and speeds it through the
// middle of a path, the way a hand moves.
func stepDelay(i, steps int) time.Duration {
	t := float64(i) / float64(steps)
	// Highest speed at t=0.5, slowest at the ends.
	factor := 1.0 + 2.0*math.Abs(t-0.5)
	base := 8 + rand.Float64()*10
	return time.Duration(base*factor) * time.Millisecond
}

// moveMouse traces a Bezier path between two points on the page.
func moveMouse(page *rod.Page, from, to proto.Point, p persona) {
	for i, pt := range bezierPath(from, to, p.pathSteps, p.shakeAmp) {
		if err := page.Mouse.MoveTo(pt); err != nil {
			return
		}
		time.Sleep(stepDelay(i+1, p.pathSteps))
	}
}

// simulateReading runs the persona's behaviour on a loaded results page:
// settle pause, a few hovers over result links, then the persona's scroll
// pattern. Failures are ignored; behaviour is best-effort camouflage.
func simulateReading(ctx context.Context, page *rod.Page, p persona) {
	if sleepOrDone(ctx, jitterDuration(p.readingTime)) {
		return
	}

	cursor := proto.Point{X: 200 + rand.Float64()*400, Y: 150 + rand.Float64()*200}

	for i := 0; i < p.hoverCount; i++ {
		target := proto.Point{
			X: 150 + rand.Float64()*500,
			Y: 180 + float64(i)*140 + rand.Float64()*60,
		}
		moveMouse(page, cursor, target, p)
		cursor = target
		if sleepOrDone(ctx, jitterDuration(p.hoverDwell)) {
			return
		}
	}

	scrollPage(ctx, page, p)
}

// scrollPage applies the persona's scroll style.
func scrollPage(ctx context.Context, page *rod.Page, p persona) {
	var segments int
	switch p.style {
	case scrollThorough:
		segments = 6 + rand.Intn(3)
	case scrollQuick, scrollJumpy:
		segments = 2 + rand.Intn(2)
	default:
		segments = 3 + rand.Intn(3)
	}

	for i := 0; i < segments; i++ {
		var dy float64
		switch p.style {
		case scrollSmooth, scrollThorough:
			dy = 220 + rand.Float64()*120
		case scrollQuick:
			dy = 600 + rand.Float64()*300
		case scrollJumpy:
			dy = 150 + rand.Float64()*700
		default: // variable
			dy = 150 + rand.Float64()*450
		}

		steps := 5
		if p.style == scrollSmooth || p.style == scrollThorough {
			steps = 12
		}
		if err := page.Mouse.Scroll(0, dy, steps); err != nil {
			log.Debug().Err(err).Msg("Scroll failed during behaviour simulation")
			return
		}

		pause := 300 + rand.Intn(900)
		if p.style == scrollJumpy && rand.Float64() < 0.3 {
			// Jumpy readers sometimes bounce back up.
			_ = page.Mouse.Scroll(0, -dy/2, 3)
		}
		if sleepOrDone(ctx, time.Duration(pause)*time.Millisecond) {
			return
		}
	}
}

func jitterDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) * (0.7 + rand.Float64()*0.6))
}

// sleepOrDone sleeps for d, returning true if the context was cancelled.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-t.C:
		return false
	}
}
