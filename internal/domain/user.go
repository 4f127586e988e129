package domain

import "errors"

// Caller is the authenticated identity behind a request. Users themselves are
// owned by the identity service; the wallet only sees their id, email and role.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleUser owns a wallet and can deposit and withdraw
	RoleUser Role = "user"

	// RoleAdmin can run reconciliation and freeze wallets
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleUser:  true,
	RoleAdmin: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsAdmin checks if the role can run operator actions
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
