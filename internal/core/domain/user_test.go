package domain

import (
	"errors"
	"testing"
)

func TestParseRole_CaseInsensitive(t *testing.T) {
	cases := map[string]Role{
		"trainer": RoleTrainer,
		"TRAINER": RoleTrainer,
		" Admin ": RoleAdmin,
		"trainee": RoleTrainee,
	}
	for in, want := range cases {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseRole("guest"); ok {
		t.Fatalf("guest must not be a known role")
	}
}

func TestRole_Dashboard(t *testing.T) {
	if RoleAdmin.Dashboard() != AdminDashboard {
		t.Fatalf("unexpected admin dashboard")
	}
	if Role("trainee").Dashboard() != TraineeDashboard {
		t.Fatalf("lower-case role should still map to its dashboard")
	}
	if Role("guest").Dashboard() != "" {
		t.Fatalf("unknown role must have no dashboard")
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := &Session{
		Identity:    Identity{Username: "alice", Role: RoleAdmin},
		Credentials: &Credentials{Username: "alice", Password: "secret"},
	}
	c := s.Clone()
	c.Credentials.Password = "changed"
	if s.Credentials.Password != "secret" {
		t.Fatalf("clone shares credentials with original")
	}
	var nilSession *Session
	if nilSession.Clone() != nil || nilSession.Role() != "" {
		t.Fatalf("nil session helpers must be nil-safe")
	}
}

func TestValidateMaterialType(t *testing.T) {
	for _, ok := range []string{"application/pdf", "video/mp4", "Application/PDF; charset=binary"} {
		if err := ValidateMaterialType(ok); err != nil {
			t.Fatalf("%q rejected: %v", ok, err)
		}
	}
	if err := ValidateMaterialType("image/png"); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestNormalizeMaterialType(t *testing.T) {
	cases := map[string]string{
		"application/pdf":                 MIMEPDF,
		"Application/PDF; charset=binary": MIMEPDF,
		" video/MP4 ":                     MIMEMP4,
	}
	for in, want := range cases {
		got, err := NormalizeMaterialType(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeMaterialType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "application/pdfx", "text/plain; x=application/pdf"} {
		if _, err := NormalizeMaterialType(bad); !errors.Is(err, ErrUnsupportedFileType) {
			t.Fatalf("%q: expected ErrUnsupportedFileType, got %v", bad, err)
		}
	}
}

func TestSession_Authenticated(t *testing.T) {
	cases := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, false},
		{"empty identity", &Session{}, false},
		{"unknown role", &Session{Identity: Identity{Username: "eve", Role: "WIZARD"}}, false},
		{"no username", &Session{Identity: Identity{Role: RoleAdmin}}, false},
		{"lower-case role", &Session{Identity: Identity{Username: "tina", Role: "trainee"}}, true},
		{"admin", &Session{Identity: Identity{Username: "root", Role: RoleAdmin}}, true},
	}
	for _, tc := range cases {
		if got := tc.s.Authenticated(); got != tc.want {
			t.Fatalf("%s: Authenticated() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
