// Package domain contains entity without logic, just meta-data
package domain

import "errors"

var ErrUsernameEmpty = errors.New("username empty")

// UserID is the connection id of the session owning the user.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, username string) (*User, error) {
	u := &User{ID: id}
	if err := u.SetUsername(username); err != nil {
		return nil, err
	}
	return u, nil
}

// SetUsername accepts any non-empty display name as sent by the client. Its
// size is bounded only by the transport frame limit.
func (u *User) SetUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	u.Username = username
	return nil
}
