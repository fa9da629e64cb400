package models

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleMember        Role = "member"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdministrator
}

// User is a stored account. PasswordHash holds an Argon2id PHC string and
// never the password itself.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Role         Role
	CreatedAt    time.Time
}
