package credential

import (
	"slices"
	"strings"

	"github.com/kbukum/authgate/database"
)

// MaxUsernameLength bounds Username and NormalizedUsername.
const MaxUsernameLength = 256

// usernameAlphabet is the set of characters allowed in a username.
const usernameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"

// User is a stored identity. Users are never physically deleted.
type User struct {
	database.BaseModel
	Username           string `gorm:"type:varchar(256);not null"`
	NormalizedUsername string `gorm:"type:varchar(256);not null;uniqueIndex:idx_users_normalized_username"`
	PasswordHash       string `gorm:"type:varchar(255);not null"`
	SecurityStamp      string `gorm:"type:varchar(36);not null"`
	Roles              []Role `gorm:"many2many:user_roles"`
}

// Role is a named grant. Names are case-sensitive.
type Role struct {
	database.BaseModel
	Name string `gorm:"type:varchar(256);not null;uniqueIndex:idx_roles_name"`
}

// UserRole is a row of the user_roles join table.
type UserRole struct {
	UserID string `gorm:"type:varchar(36);primaryKey"`
	RoleID string `gorm:"type:varchar(36);primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }

// Models lists the types to auto-migrate.
func Models() []interface{} {
	return []interface{}{&Role{}, &User{}}
}

// SubjectID is the token subject for u.
func (u *User) SubjectID() string { return u.ID }

// RoleNames returns u's role names, sorted.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	return names
}

// HasRole reports whether u holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// Normalize returns the invariant lookup form of a username.
func Normalize(username string) string {
	return strings.ToUpper(username)
}

// ValidUsername reports whether username is non-empty, short enough and
// drawn from the allowed alphabet.
func ValidUsername(username string) bool {
	if username == "" || len(username) > MaxUsernameLength {
		return false
	}
	for _, r := range username {
		if !strings.ContainsRune(usernameAlphabet, r) {
			return false
		}
	}
	return true
}

// normalizeRoles trims, drops empties, dedupes and sorts role names.
func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r != "" && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
