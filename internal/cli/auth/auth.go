// Package auth reads and writes the console's locally persisted session: the
// bearer token, the cached user record and the remembered login email.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

// RoleAdmin is the only role allowed onto admin-only routes
const RoleAdmin = "admin"

// ErrMalformedUser is returned when the stored user record is not valid JSON
var ErrMalformedUser = errors.New("malformed user record")

// User is the cached record of the signed-in account
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// State is a point-in-time snapshot of the persisted session
type State struct {
	Token string
	// User is nil when no record is stored or the record could not be decoded
	User *User
	// UserErr is set when a record exists but could not be decoded
	UserErr error
}

// Authenticated reports whether a token is present
func (s State) Authenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the cached user holds the admin role
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

// DecodeUser parses a stored user record
func DecodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedUser, err)
	}
	return u, nil
}

// LoadState reads the session from store. It never fails: a key that cannot
// be read is treated as absent.
func LoadState(store storage.Store) State {
	var st State

	if token, err := store.Get(storage.KeyToken); err == nil {
		st.Token = token
	}

	raw, err := store.Get(storage.KeyUser)
	if err != nil || raw == "" {
		return st
	}

	u, err := DecodeUser(raw)
	if err != nil {
		st.UserErr = err
		return st
	}
	st.User = &u

	return st
}

// SaveUser persists the user record
func SaveUser(store storage.Store, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := store.Set(storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes the user record
func DeleteUser(store storage.Store) error {
	if err := store.Delete(storage.KeyUser); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// RememberEmail stores the login email for the "remember me" convenience
func RememberEmail(store storage.Store, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ForgetEmail(store)
	}
	if err := store.Set(storage.KeyRememberedEmail, email); err != nil {
		return fmt.Errorf("failed to remember email: %w", err)
	}
	return nil
}

// RememberedEmail returns the remembered login email, or "" if none
func RememberedEmail(store storage.Store) string {
	email, err := store.Get(storage.KeyRememberedEmail)
	if err != nil {
		return ""
	}
	return email
}

// ForgetEmail removes the remembered login email
func ForgetEmail(store storage.Store) error {
	if err := store.Delete(storage.KeyRememberedEmail); err != nil {
		return fmt.Errorf("failed to forget email: %w", err)
	}
	return nil
}
