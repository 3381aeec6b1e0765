package domain

import "time"

// SessionMarker distinguishes a continuing browser session from a fresh one.
//
// SessionID lives only as long as the current session; LastActivityAt is
// persisted so inactivity can be measured across restarts. HiddenAt is set
// while the window is hidden and nil otherwise.
type SessionMarker struct {
	SessionID      string
	LastActivityAt time.Time
	HiddenAt       *time.Time
}

// ActivityKind is a tracked user input event or a visibility change.
type ActivityKind string

const (
	ActivityPointerDown ActivityKind = "pointerdown"
	ActivityKeyDown     ActivityKind = "keydown"
	ActivityScroll      ActivityKind = "scroll"
	ActivityTouchStart  ActivityKind = "touchstart"
	ActivityClick       ActivityKind = "click"

	VisibilityHidden  ActivityKind = "visibility:hidden"
	VisibilityVisible ActivityKind = "visibility:visible"
)

// trackedActivity is the fixed set of inputs that count as user activity.
var trackedActivity = map[ActivityKind]struct{}{
	ActivityPointerDown: {},
	ActivityKeyDown:     {},
	ActivityScroll:      {},
	ActivityTouchStart:  {},
	ActivityClick:       {},
}

// IsTracked reports whether the event refreshes the inactivity clock.
func (k ActivityKind) IsTracked() bool {
	_, ok := trackedActivity[k]
	return ok
}

// UIEvent is delivered by the host UI to the session subsystem.
type UIEvent struct {
	Kind ActivityKind
}
