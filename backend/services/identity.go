package services

import "learnhub/backend/models"

// Identity is the acting user, resolved by the caller from its session.
type Identity struct {
	UserID   uint
	Username string
	Email    string
	Role     string
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Matches reports whether u is the account behind the identity. The user id
// decides when the session carries one; the username or the email may also
// have been used to sign in.
func (i Identity) Matches(u *models.User) bool {
	if i.UserID != 0 && i.UserID == u.ID {
		return true
	}
	for _, name := range []string{i.Username, i.Email} {
		if name != "" && (name == u.Username || name == u.Email) {
			return true
		}
	}
	return false
}
