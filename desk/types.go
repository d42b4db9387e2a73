// Package desk implements the virtual window manager: an in-memory desktop
// of chat and tool windows with z-ordering, focus tracking, geometry, and
// an adaptive performance governor. It holds no UI-framework types; tab
// content is a serializable tagged variant the rendering layer resolves.
package desk

import "time"

// Tab content types. The rendering layer maps these to components; an
// unrecognized type renders as a placeholder, never a crash.
const (
	ContentChat        = "chat"
	ContentNote        = "note"
	ContentCode        = "code"
	ContentPerfMonitor = "performance-monitor"
	ContentUnknown     = "unknown"
)

// Usability floor for window geometry: resize can never collapse a window
// below this.
const (
	MinWidth  = 24
	MinHeight = 8
)

// Default geometry for newly opened windows.
const (
	defaultWidth   = 64
	defaultHeight  = 18
	cascadeBaseX   = 4
	cascadeBaseY   = 2
	cascadeOffsetX = 3
	cascadeOffsetY = 1
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TabContent is the tagged variant carried by a tab: a content-type tag and
// only serializable configuration. This is what crosses the pop-out
// boundary.
type TabContent struct {
	Type  string            `json:"type"`
	Props map[string]string `json:"props,omitempty"`
}

type Tab struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Content TabContent `json:"content"`
}

// Window is one virtual window. A window always has at least one tab.
// Position and Size are retained while maximized so restore is exact;
// Minimized and PoppedOut both mean "not rendered on the virtual desktop"
// without destroying state.
type Window struct {
	ID              string
	Tabs            []Tab
	ActiveTabID     string
	Position        Position
	Size            Size
	Minimized       bool
	Maximized       bool
	PoppedOut       bool
	Locked          bool
	Blurred         bool
	BlurAmount      int
	ZIndex          int
	LastInteraction time.Time
}

// HasTab reports whether any tab of the window carries the given id.
func (w *Window) HasTab(id string) bool {
	for _, tab := range w.Tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}

// HasContentType reports whether any tab carries the given content type.
func (w *Window) HasContentType(contentType string) bool {
	for _, tab := range w.Tabs {
		if tab.Content.Type == contentType {
			return true
		}
	}
	return false
}

// Visible reports whether the window is rendered on the virtual desktop.
func (w *Window) Visible() bool {
	return !w.Minimized && !w.PoppedOut
}

func (w *Window) clone() Window {
	c := *w
	c.Tabs = make([]Tab, len(w.Tabs))
	for i, tab := range w.Tabs {
		if tab.Content.Props != nil {
			props := make(map[string]string, len(tab.Content.Props))
			for k, v := range tab.Content.Props {
				props[k] = v
			}
			tab.Content.Props = props
		}
		c.Tabs[i] = tab
	}
	return c
}
