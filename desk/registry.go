package desk

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns the window collection, the monotonic z-index counter, and
// the currently focused window. It is the single writer for window state:
// every mutation goes through one of its operations, each of which applies
// atomically under the lock.
type Registry struct {
	mu       sync.RWMutex
	windows  []*Window
	zCounter int
	activeID string
	launcher PopOutLauncher
	now      func() time.Time
}

// OpenOptions overrides the default geometry for a new window.
type OpenOptions struct {
	Position *Position
	Size     *Size
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// SetPopOutLauncher injects the collaborator that opens real external
// windows. Without one, PopOut is a no-op.
func (r *Registry) SetPopOutLauncher(launcher PopOutLauncher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launcher = launcher
}

// Open creates a window holding the given tab and focuses it. Open is
// idempotent by id: if a window with that id (or containing a tab with that
// id) already exists, it is restored if minimized and focused instead of
// duplicated. Returns the window id.
func (r *Registry) Open(tab Tab, opts *OpenOptions) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.windows {
		if w.ID == tab.ID || w.HasTab(tab.ID) {
			// Re-opening reclaims the window onto the virtual desktop,
			// whether it was minimized or handed off to an external window.
			w.Minimized = false
			w.PoppedOut = false
			r.focusLocked(w)
			return w.ID
		}
	}

	id := tab.ID
	if id == "" {
		id = uuid.NewString()
	}
	if tab.ID == "" {
		tab.ID = id
	}

	// Cascade new windows by existing count so they never open perfectly
	// stacked.
	count := len(r.windows)
	w := &Window{
		ID:          id,
		Tabs:        []Tab{tab},
		ActiveTabID: tab.ID,
		Position: Position{
			X: cascadeBaseX + count*cascadeOffsetX,
			Y: cascadeBaseY + count*cascadeOffsetY,
		},
		Size: Size{Width: defaultWidth, Height: defaultHeight},
	}
	if opts != nil && opts.Position != nil {
		w.Position = *opts.Position
	}
	if opts != nil && opts.Size != nil {
		w.Size = clampSize(*opts.Size)
	}

	r.windows = append(r.windows, w)
	r.focusLocked(w)
	return id
}

// Focus raises the window to the top of the z-order, stamps its interaction
// time, and makes it the active window. After a focus no two windows share
// a z-index: the focused window is strictly above all others.
func (r *Registry) Focus(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		r.focusLocked(w)
	}
}

func (r *Registry) focusLocked(w *Window) {
	r.zCounter++
	w.ZIndex = r.zCounter
	w.LastInteraction = r.now()
	r.activeID = w.ID
}

// Close removes the window. If it was active, no other window is
// auto-focused; an explicit refocus is required.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.windows {
		if w.ID == id {
			r.windows = append(r.windows[:i], r.windows[i+1:]...)
			if r.activeID == id {
				r.activeID = ""
			}
			return
		}
	}
}

// Minimize hides the window from the virtual desktop without destroying
// its state.
func (r *Registry) Minimize(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		w.Minimized = true
		if r.activeID == id {
			r.activeID = ""
		}
	}
}

// Maximize marks the window full-viewport for rendering. Position and size
// are retained untouched so a later Restore is exact.
func (r *Registry) Maximize(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		w.Maximized = true
		r.focusLocked(w)
	}
}

// Restore clears both minimized and maximized states and refocuses.
func (r *Registry) Restore(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		w.Minimized = false
		w.Maximized = false
		r.focusLocked(w)
	}
}

// Move sets the window position. Ignored while maximized: geometry is
// meaningless until restore.
func (r *Registry) Move(id string, pos Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil && !w.Maximized {
		w.Position = pos
	}
}

// Resize sets the window size, clamped to the usability floor. Ignored
// while maximized.
func (r *Registry) Resize(id string, size Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil && !w.Maximized {
		w.Size = clampSize(size)
	}
}

// Merge moves every tab of source into target (appended after target's
// tabs), carries source's active tab over as target's active tab, deletes
// source, and focuses target. Missing ids make it a no-op.
func (r *Registry) Merge(sourceID, targetID string) {
	if sourceID == targetID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	source := r.findLocked(sourceID)
	target := r.findLocked(targetID)
	if source == nil || target == nil {
		return
	}

	target.Tabs = append(target.Tabs, source.Tabs...)
	target.ActiveTabID = source.ActiveTabID

	for i, w := range r.windows {
		if w.ID == sourceID {
			r.windows = append(r.windows[:i], r.windows[i+1:]...)
			break
		}
	}
	if r.activeID == sourceID {
		r.activeID = ""
	}
	r.focusLocked(target)
}

// PopOut hands the window's first tab off to a real external window and
// marks the source popped-out: hidden from the virtual desktop but still
// registered, so it counts as open. The external window reconstructs its UI
// purely from the serialized state; drift between the two afterwards is
// expected — pop-out is a one-way handoff.
func (r *Registry) PopOut(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.findLocked(id)
	if w == nil || len(w.Tabs) == 0 {
		return nil
	}
	if r.launcher == nil {
		return nil
	}

	first := w.Tabs[0]
	state := PopOutState{
		Title: first.Title,
		Type:  first.Content.Type,
	}
	if first.Content.Props != nil {
		state.Props = make(map[string]string, len(first.Content.Props))
		for k, v := range first.Content.Props {
			state.Props[k] = v
		}
	}

	// Spawn beside the source window.
	pos := Position{X: w.Position.X + 2, Y: w.Position.Y + 1}
	if err := r.launcher.Launch(w.ID, state, pos, w.Size); err != nil {
		return err
	}

	w.PoppedOut = true
	if r.activeID == id {
		r.activeID = ""
	}
	return nil
}

// UpdateTabProps mutates a tab's content props under the registry lock.
// Snapshots returned by Get and Windows are copies, so this is the only way
// to change tab content on a live window. Missing ids are a no-op.
func (r *Registry) UpdateTabProps(windowID, tabID string, fn func(props map[string]string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.findLocked(windowID)
	if w == nil {
		return
	}
	for i := range w.Tabs {
		if w.Tabs[i].ID == tabID {
			if w.Tabs[i].Content.Props == nil {
				w.Tabs[i].Content.Props = make(map[string]string)
			}
			fn(w.Tabs[i].Content.Props)
			return
		}
	}
}

// SetBlur toggles the blur overlay. Cosmetic: no effect on geometry or
// z-order.
func (r *Registry) SetBlur(id string, blurred bool, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		w.Blurred = blurred
		w.BlurAmount = amount
	}
}

// SetLock toggles the lock overlay. Cosmetic, like SetBlur.
func (r *Registry) SetLock(id string, locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.findLocked(id); w != nil {
		w.Locked = locked
	}
}

// ActiveID returns the focused window id, or "" when none is focused.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Get returns a copy of the window with the given id.
func (r *Registry) Get(id string) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w := r.findLocked(id); w != nil {
		return w.clone(), true
	}
	return Window{}, false
}

// Windows returns copies of all windows in insertion order.
func (r *Registry) Windows() []Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, w.clone())
	}
	return out
}

// Count returns the total number of registered windows.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// VisibleCount returns how many windows are rendered on the virtual
// desktop (not minimized, not popped out).
func (r *Registry) VisibleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, w := range r.windows {
		if w.Visible() {
			n++
		}
	}
	return n
}

func (r *Registry) findLocked(id string) *Window {
	for _, w := range r.windows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func clampSize(s Size) Size {
	if s.Width < MinWidth {
		s.Width = MinWidth
	}
	if s.Height < MinHeight {
		s.Height = MinHeight
	}
	return s
}
