package desk

import (
	"sort"
	"sync"
	"time"
)

// Mode is the user-selected performance mode.
type Mode string

const (
	ModeLow     Mode = "low"
	ModeMedium  Mode = "medium"
	ModeHigh    Mode = "high"
	ModeDynamic Mode = "dynamic"
)

// Dynamic-mode thresholds.
const (
	fpsLowThreshold    = 45
	fpsHighThreshold   = 55
	highModeMaxWindows = 5

	// NarrowViewportWidth is the device-pixel width below which a desktop
	// viewport is considered narrow and hard-capped at 3 windows.
	NarrowViewportWidth = 1200
	narrowViewportCap   = 3
)

// evictionDebounce delays enforcement so the governor never closes a
// window mid-drag or mid-transition.
const evictionDebounce = 300 * time.Millisecond

// Preset is the resource budget and effect switches for one mode.
type Preset struct {
	MaxWindows     int
	BlurEffects    bool
	Animations     bool
	Shadows        bool
	Translucency   bool
	AnimationTier  int
	TextureQuality string
}

var presets = map[Mode]Preset{
	ModeLow: {
		MaxWindows:     3,
		AnimationTier:  0,
		TextureQuality: "low",
	},
	ModeMedium: {
		MaxWindows:     5,
		Animations:     true,
		Shadows:        true,
		AnimationTier:  1,
		TextureQuality: "medium",
	},
	ModeHigh: {
		MaxWindows:     8,
		BlurEffects:    true,
		Animations:     true,
		Shadows:        true,
		Translucency:   true,
		AnimationTier:  2,
		TextureQuality: "high",
	},
}

// Viewport describes the rendering surface the desk runs on.
type Viewport struct {
	Width  int
	Mobile bool
}

// Governor keeps the count of rendered windows within a budget that adapts
// to frame rate and viewport, evicting the least-important windows when
// over. Advisory, not safety-critical: late eviction degrades
// responsiveness but never corrupts state.
type Governor struct {
	mu       sync.Mutex
	registry *Registry
	mode     Mode
	viewport Viewport

	frames      int
	windowStart time.Time
	fps         float64

	overSince time.Time // when the desk first went over budget; zero if not over
	now       func() time.Time
}

// NewGovernor creates a governor over the registry in the given mode.
func NewGovernor(registry *Registry, mode Mode) *Governor {
	return &Governor{
		registry: registry,
		mode:     mode,
		viewport: Viewport{Width: NarrowViewportWidth},
		fps:      60, // optimistic until the first full sampling window
		now:      time.Now,
	}
}

// SetMode switches the user-selected mode.
func (g *Governor) SetMode(mode Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = mode
}

// SetViewport updates the surface the budget is computed against.
func (g *Governor) SetViewport(v Viewport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewport = v
}

// FPS returns the most recently sampled frame rate.
func (g *Governor) FPS() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fps
}

// FrameTick counts one rendered frame and runs the enforcement check. The
// FPS counter resets every 1000ms of wall clock.
func (g *Governor) FrameTick(now time.Time) {
	g.mu.Lock()

	g.frames++
	if g.windowStart.IsZero() {
		g.windowStart = now
	} else if elapsed := now.Sub(g.windowStart); elapsed >= time.Second {
		g.fps = float64(g.frames) / elapsed.Seconds()
		g.frames = 0
		g.windowStart = now
	}

	budget := g.budgetLocked()
	over := g.registry.VisibleCount() > budget

	var evict int
	switch {
	case !over:
		g.overSince = time.Time{}
	case g.overSince.IsZero():
		g.overSince = now
	case now.Sub(g.overSince) >= evictionDebounce:
		evict = g.registry.VisibleCount() - budget
		g.overSince = time.Time{}
	}
	g.mu.Unlock()

	if evict > 0 {
		g.evict(evict)
	}
}

// EffectiveMode resolves the dynamic mode against current conditions.
func (g *Governor) EffectiveMode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.effectiveModeLocked()
}

func (g *Governor) effectiveModeLocked() Mode {
	if g.mode != ModeDynamic {
		return g.mode
	}
	if g.viewport.Mobile || g.viewport.Width < NarrowViewportWidth || g.fps < fpsLowThreshold {
		return ModeLow
	}
	if g.fps > fpsHighThreshold && g.registry.Count() < highModeMaxWindows {
		return ModeHigh
	}
	return ModeMedium
}

// Config returns the preset for the current effective mode.
func (g *Governor) Config() Preset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return presets[g.effectiveModeLocked()]
}

// Budget is the maximum number of simultaneously rendered windows. Mobile
// viewports disable virtual windows entirely; narrow desktop viewports are
// capped regardless of preset.
func (g *Governor) Budget() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.budgetLocked()
}

func (g *Governor) budgetLocked() int {
	if g.viewport.Mobile {
		return 0
	}
	budget := presets[g.effectiveModeLocked()].MaxWindows
	if g.viewport.Width < NarrowViewportWidth && budget > narrowViewportCap {
		budget = narrowViewportCap
	}
	return budget
}

// EvictionOrder ranks the currently visible windows, least important first.
// Windows holding a performance-monitor tab are never listed; the active
// window ranks above everything else; the rest order by staleness.
func (g *Governor) EvictionOrder() []string {
	active := g.registry.ActiveID()

	type candidate struct {
		id       string
		isActive bool
		last     time.Time
	}
	var candidates []candidate
	for _, w := range g.registry.Windows() {
		if !w.Visible() || w.HasContentType(ContentPerfMonitor) {
			continue
		}
		candidates = append(candidates, candidate{
			id:       w.ID,
			isActive: w.ID == active,
			last:     w.LastInteraction,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].isActive != candidates[j].isActive {
			return !candidates[i].isActive
		}
		return candidates[i].last.Before(candidates[j].last)
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

func (g *Governor) evict(n int) {
	order := g.EvictionOrder()
	for i := 0; i < n && i < len(order); i++ {
		g.registry.Close(order[i])
	}
}

// ClearClutter is the explicit aggressive sweep: keep only the two most
// important windows by the eviction ranking, regardless of budget.
// Performance-monitor windows rank most important and are never closed
// even when more than two exist.
func (g *Governor) ClearClutter() {
	order := g.EvictionOrder()
	var perf []string
	for _, w := range g.registry.Windows() {
		if w.Visible() && w.HasContentType(ContentPerfMonitor) {
			perf = append(perf, w.ID)
		}
	}

	// Full importance order, least important first.
	full := append(order, perf...)
	if len(full) <= 2 {
		return
	}
	protected := make(map[string]bool, len(perf))
	for _, id := range perf {
		protected[id] = true
	}
	for _, id := range full[:len(full)-2] {
		if !protected[id] {
			g.registry.Close(id)
		}
	}
}
