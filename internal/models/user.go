// Package models holds the DTOs mirrored from the taskhub backend. The client
// never owns canonical state; these are working copies per view.
package models

import "strings"

// RoleAdmin is the elevated role name once the ROLE_ prefix is stripped.
const RoleAdmin = "ADMIN"

// Role is a named role attached to a user.
type Role struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// User is the authenticated or listed user profile.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Roles     []Role `json:"roles,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// HasRole reports whether the user carries the named role. Both "ADMIN" and
// "ROLE_ADMIN" spellings match.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	want := NormalizeRole(name)
	for _, r := range u.Roles {
		if NormalizeRole(r.Name) == want {
			return true
		}
	}
	return false
}

// NormalizeRole upper-cases a role name and strips the ROLE_ prefix.
func NormalizeRole(name string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "ROLE_")
}

// LoginRequest is the username/password login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries an OAuth credential issued by Google.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LogoutRequest invalidates a bearer token.
type LogoutRequest struct {
	Token string `json:"token"`
}

// AuthResponse is returned by every credential-issuing endpoint.
type AuthResponse struct {
	Token      string `json:"token"`
	ExpiryTime string `json:"expiryTime,omitempty"`
}
