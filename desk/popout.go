package desk

import (
	"encoding/json"
	"net/url"
)

// PopOutQueryParam is the query parameter carrying the serialized pop-out
// state on the external window's entry URL.
const PopOutQueryParam = "state"

// PopOutState is the whole of what crosses the pop-out boundary: the
// external window reconstructs its UI from this and nothing else.
type PopOutState struct {
	Title string            `json:"title"`
	Type  string            `json:"type"`
	Props map[string]string `json:"props,omitempty"`
}

// PopOutLauncher opens a real external window for a popped-out tab. The
// window id doubles as the external window's handle name, so popping the
// same window twice reuses the handle.
type PopOutLauncher interface {
	Launch(windowID string, state PopOutState, pos Position, size Size) error
}

// EncodePopOutState serializes state as URL-encoded JSON, ready to be
// placed in the entry point's query parameter.
func EncodePopOutState(state PopOutState) string {
	raw, err := json.Marshal(state)
	if err != nil {
		// Only map/string fields: marshaling cannot fail in practice.
		return url.QueryEscape(`{"type":"` + ContentUnknown + `"}`)
	}
	return url.QueryEscape(string(raw))
}

// DecodePopOutState parses a serialized state blob. A malformed payload
// yields an unknown-type placeholder state, never an error: the entry point
// must render something rather than crash.
func DecodePopOutState(raw string) PopOutState {
	unescaped, err := url.QueryUnescape(raw)
	if err != nil {
		return placeholderState()
	}

	var state PopOutState
	if err := json.Unmarshal([]byte(unescaped), &state); err != nil {
		return placeholderState()
	}
	if state.Type == "" {
		state.Type = ContentUnknown
	}
	return state
}

// PopOutURL builds the full entry-point URL for a pop-out state.
func PopOutURL(base string, state PopOutState) string {
	return base + "?" + PopOutQueryParam + "=" + EncodePopOutState(state)
}

func placeholderState() PopOutState {
	return PopOutState{Title: "Unknown", Type: ContentUnknown}
}
