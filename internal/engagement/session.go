package engagement

// Session is the identity every controller acts on behalf of.
type Session struct {
	UserID string
	Token  string
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}
