package user

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/stayfinder/service-booking/internal/domain"
)

// Role is a user's capability set on the platform.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a string to a Role, returning an error if invalid.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

// Address holds a user's optional postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Profile holds a user's optional profile fields.
type Profile struct {
	PhoneNumber    string     `json:"phone_number,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	AlternateEmail string     `json:"alternate_email,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Address        Address    `json:"address"`
}

// User is the aggregate root for a platform account. The password is held
// only as a bcrypt hash; the plaintext never reaches the domain layer.
type User struct {
	id           uuid.UUID
	name         string
	email        string
	passwordHash string
	role         Role
	profile      Profile
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new guest account with validated fields.
func NewUser(name, email, passwordHash string) (*User, error) {
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password hash is required")
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		role:         RoleGuest,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, email, passwordHash string,
	role Role,
	profile Profile,
	version int64,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		profile:      profile,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) Profile() Profile     { return u.profile }
func (u *User) Version() int64       { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// --- Behavior ---

// BecomeHost upgrades a guest account to a host account. Admins keep
// their role; an existing host is a no-op.
func (u *User) BecomeHost() {
	if u.role != RoleGuest {
		return
	}
	u.role = RoleHost
	u.version++
	u.updatedAt = time.Now().UTC()
}

// UpdateProfile applies partial updates to the user's profile. Empty
// values leave the corresponding field unchanged.
func (u *User) UpdateProfile(name string, profile Profile) error {
	if name != "" {
		u.name = name
	}
	if profile.AlternateEmail != "" && !emailPattern.MatchString(profile.AlternateEmail) {
		return domain.NewValidationError("alternate email is not a valid email")
	}
	if profile.PhoneNumber != "" {
		u.profile.PhoneNumber = profile.PhoneNumber
	}
	if profile.Gender != "" {
		u.profile.Gender = profile.Gender
	}
	if profile.AlternateEmail != "" {
		u.profile.AlternateEmail = profile.AlternateEmail
	}
	if profile.DateOfBirth != nil {
		u.profile.DateOfBirth = profile.DateOfBirth
	}
	if profile.Address != (Address{}) {
		u.profile.Address = profile.Address
	}
	u.version++
	u.updatedAt = time.Now().UTC()
	return nil
}
