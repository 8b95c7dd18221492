package domain

// Identity is the authenticated actor as returned by the login endpoint.
type Identity struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Credentials is the username/password pair used to build the Basic
// authorization header for each backend request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the record of who is logged in and with which credentials.
// A nil *Session means nobody is logged in.
type Session struct {
	Identity    Identity     `json:"user"`
	Credentials *Credentials `json:"-"`
}

// Role returns the normalized role of the session.
func (s *Session) Role() Role {
	if s == nil {
		return ""
	}
	return NormalizeRole(string(s.Identity.Role))
}

// Authenticated reports whether s is a session the portal recognises: one
// carrying a username and a known role.
func (s *Session) Authenticated() bool {
	return s != nil && s.Identity.Username != "" && s.Role().Known()
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Credentials != nil {
		c := *s.Credentials
		out.Credentials = &c
	}
	return &out
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a short-lived banner message shown once on the next view.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
