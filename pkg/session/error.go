package session

// Error normalizes every client-side failure: network errors, non-2xx
// responses and decode failures. Status 0 means the request never reached the
// server.
type Error struct {
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}
