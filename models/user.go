package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role stored on a user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// legacyRolePrefix is how older records stored roles (e.g. ROLE_ADMIN)
const legacyRolePrefix = "ROLE_"

// ParseRole normalizes a stored role value. Unknown values map to RoleUser
// so a bad record can never gain elevated access.
func ParseRole(value string) Role {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, legacyRolePrefix)

	switch Role(normalized) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// User is a storefront account. Email is the login identifier.
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Phone         string    `json:"phone" db:"phone"`
	StreetAddress string    `json:"streetAddress" db:"street_address"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	Zip           string    `json:"zip" db:"zip"`
	Country       string    `json:"country" db:"country"`
	Role          Role      `json:"role" db:"role"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// NewUser creates a new User with the default role
func NewUser(firstName, lastName, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
