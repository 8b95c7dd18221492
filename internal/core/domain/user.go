package domain

import (
	"errors"
	"strings"
)

// Role is the canonical, upper-case role tag of an authenticated actor.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTrainer Role = "TRAINER"
	RoleTrainee Role = "TRAINEE"
)

// Dashboard routes, one per role.
const (
	AdminDashboard   = "/admin/dashboard"
	TrainerDashboard = "/trainer/dashboard"
	TraineeDashboard = "/trainee/dashboard"
	LoginRoute       = "/login"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMissing        = errors.New("role not found in login response")
	ErrSessionNotFound    = errors.New("session not found")
)

// NormalizeRole upper-cases and trims a role string received at a boundary.
func NormalizeRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := NormalizeRole(s)
	return r, r.Known()
}

// Known reports whether r is one of ADMIN, TRAINER or TRAINEE.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleTrainee:
		return true
	}
	return false
}

// Dashboard returns the canonical dashboard route for r, or "" for an
// unrecognised role.
func (r Role) Dashboard() string {
	switch NormalizeRole(string(r)) {
	case RoleAdmin:
		return AdminDashboard
	case RoleTrainer:
		return TrainerDashboard
	case RoleTrainee:
		return TraineeDashboard
	}
	return ""
}

func (r Role) String() string { return string(r) }
