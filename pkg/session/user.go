package session

import (
	"encoding/json"
	"fmt"
)

// User carries the authenticated account's identity and profile.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// UserPatch is a partial profile update applied locally after an edit
// succeeded elsewhere. Nil fields are left untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	AvatarURL *string
}

// RegisterFields is the registration payload.
type RegisterFields struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// decodeUser extracts a user from envelope data. The backend is
// inconsistent here: some endpoints put the user directly in data,
// others nest it under data.user. Both shapes are accepted; the nested
// one is probed first. Worth settling server-side eventually.
func decodeUser(data json.RawMessage) (*User, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty user payload")
	}

	var nested struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && len(nested.User) > 0 {
		data = nested.User
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == 0 && user.Username == "" {
		return nil, fmt.Errorf("user payload missing identity")
	}
	return &user, nil
}

// merge applies a patch to a copy of the user.
func (u User) merge(patch UserPatch) User {
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	return u
}
