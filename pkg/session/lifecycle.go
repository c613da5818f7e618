package session

// AppState is the host platform's application state
type AppState int

const (
	StateActive AppState = iota
	StateInactive
	StateBackground
)

// Observer translates app-lifecycle events into session bookkeeping: leaving
// the active state records the background timestamp, returning to it
// re-checks the session and clears the timestamp. The observer only reacts to
// delivered events; it does not watch the platform itself.
type Observer struct {
	session *Store
	current AppState
}

// NewObserver creates an observer assuming the app starts active
func NewObserver(session *Store) *Observer {
	return &Observer{session: session, current: StateActive}
}

// HandleStateChange processes one state transition. Duplicate events for the
// same effective state are harmless.
func (o *Observer) HandleStateChange(next AppState) {
	previous := o.current
	o.current = next

	if !o.session.IsAuthenticated() {
		return
	}

	if previous == StateActive && next != StateActive {
		o.session.MarkBackground()
		return
	}

	if previous != StateActive && next == StateActive {
		o.session.CheckAuthStatus()
		o.session.SetBackgroundTime(0)
	}
}
