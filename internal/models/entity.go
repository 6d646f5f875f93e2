// Package models defines the domain types shared by the repository, scoring and
// engine layers. They are independent of the GORM row types in internal/db.
package models

import "strings"

// Role is the side an entity plays on the platform. It is set once and never changes.
type Role string

const (
	RoleNone    Role = ""
	RoleCompany Role = "company"
	RoleAgent   Role = "agent"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleAgent
}

// Opposite returns the counterpart role, or RoleNone for an unknown role.
func (r Role) Opposite() Role {
	switch r {
	case RoleCompany:
		return RoleAgent
	case RoleAgent:
		return RoleCompany
	default:
		return RoleNone
	}
}

// Profile is the role-specific attribute set of an entity.
// It is implemented only by *CompanyProfile and *AgentProfile.
type Profile interface {
	Role() Role
	isProfile()
}

// CompanyProfile holds the attributes of a company looking for agents.
type CompanyProfile struct {
	Country        string
	Industries     []string
	CommissionInfo string
	Reputation     float64
	ReviewCount    int
}

func (*CompanyProfile) Role() Role { return RoleCompany }
func (*CompanyProfile) isProfile() {}

// AgentProfile holds the attributes of an agent offering introductions.
type AgentProfile struct {
	Countries       []string
	Languages       []string
	Specializations []string
	ExperienceYears int
	Reputation      float64
}

func (*AgentProfile) Role() Role { return RoleAgent }
func (*AgentProfile) isProfile() {}

// Entity is a participant together with its profile.
//
// Language is the entity's interface language. Companies have no language set of
// their own, so the scorer falls back to it.
type Entity struct {
	ID       uint64
	Role     Role
	Language string
	Profile  Profile
}

// Complete reports whether the entity has a valid role and a profile matching it.
func (e *Entity) Complete() bool {
	if e == nil || !e.Role.Valid() || e.Profile == nil {
		return false
	}
	return e.Profile.Role() == e.Role
}

// Reputation returns the profile reputation, zero when there is no profile.
func (e *Entity) Reputation() float64 {
	switch p := e.Profile.(type) {
	case *CompanyProfile:
		return p.Reputation
	case *AgentProfile:
		return p.Reputation
	default:
		return 0
	}
}

// NormalizeTag lower-cases and trims a tag so tags compare by value.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTags normalizes and de-duplicates tags, dropping empty values.
// Order of first appearance is kept.
func NormalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
