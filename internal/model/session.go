package model

type SessionState int

const (
	DefaultState SessionState = iota
	ExpectingUsername
	ExpectingBuyOrder
	ExpectingSellOrder
	ExpectingPerformanceSymbol
)

// Session is the per-chat conversation state kept in redis between
// telegram updates.
type Session struct {
	State    SessionState
	Username string
}

func (s Session) LoggedIn() bool {
	return s.Username != ""
}
