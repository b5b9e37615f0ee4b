// Package domain holds the identity types the auth service operates on.
package domain

import (
	"strings"
	"time"
)

// Role identifies which principal table an identity lives in.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleStudent Role = "Student"
)

// AdminIDMarker designates an admin login identifier, e.g. "2024-admin-001".
const AdminIDMarker = "-admin"

// RoleForIDNumber resolves the role from the login identifier format. This is
// the single place the discriminator lives; callers must not re-implement the
// check.
func RoleForIDNumber(idNumber string) Role {
	if strings.Contains(idNumber, AdminIDMarker) {
		return RoleAdmin
	}
	return RoleStudent
}

// Principal status values are domain-specific strings inherited from the
// membership system; the two tables never agreed on a vocabulary.
const (
	AdminStatusActive    = "Active"
	AdminStatusSuspended = "Suspend"

	StudentStatusActive  = "True"
	StudentStatusDeleted = "False"
)

// Student is a student principal record.
type Student struct {
	ID                  string
	IDNumber            string
	PasswordHash        string
	FirstName           string
	MiddleName          string
	LastName            string
	Email               string
	Course              string
	Year                string
	Campus              string
	Status              string // "True" = active, "False" = deleted
	MembershipStatus    string
	CurrentRefreshToken *string // nil when no live session
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Active reports whether the student may authenticate.
func (s Student) Active() bool { return s.Status == StudentStatusActive }

// Admin is an officer principal record.
type Admin struct {
	ID                  string
	IDNumber            string
	PasswordHash        string
	Name                string
	Email               string
	Course              string
	Year                string
	Campus              string
	Position            string
	Access              string // free-form level, e.g. "president", "treasurer"
	Status              string // "Active" or "Suspend"
	CurrentRefreshToken *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Active reports whether the admin may authenticate.
func (a Admin) Active() bool { return a.Status == AdminStatusActive }

// Suspended reports the explicitly suspended state, which gets its own login
// error distinct from plain inactive.
func (a Admin) Suspended() bool { return a.Status == AdminStatusSuspended }

// Profile is the redacted, role-appropriate projection returned to clients.
// It never includes the password hash or the raw refresh token.
type Profile struct {
	ID               string
	IDNumber         string
	Role             Role
	Campus           string
	Name             string
	Email            string
	Course           string
	Year             string
	MembershipStatus string // students only
	Position         string // admins only
	Access           string // admins only
}

// StudentProfile builds the client projection of a student.
func StudentProfile(s Student) Profile {
	name := s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	if s.LastName != "" {
		name += " " + s.LastName
	}

	return Profile{
		ID:               s.ID,
		IDNumber:         s.IDNumber,
		Role:             RoleStudent,
		Campus:           campusOrDefault(s.Campus),
		Name:             strings.TrimSpace(name),
		Email:            s.Email,
		Course:           s.Course,
		Year:             s.Year,
		MembershipStatus: s.MembershipStatus,
	}
}

// AdminProfile builds the client projection of an admin.
func AdminProfile(a Admin) Profile {
	return Profile{
		ID:       a.ID,
		IDNumber: a.IDNumber,
		Role:     RoleAdmin,
		Campus:   campusOrDefault(a.Campus),
		Name:     a.Name,
		Email:    a.Email,
		Course:   a.Course,
		Year:     a.Year,
		Position: a.Position,
		Access:   a.Access,
	}
}

// DefaultCampus backfills records created before campus tagging existed.
const DefaultCampus = "UC-Main"

func campusOrDefault(campus string) string {
	if campus == "" {
		return DefaultCampus
	}
	return campus
}
