package model

import "time"

// Roles a user can hold.  Only admins may manage other user accounts;
// the role has no effect on board ownership.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table.  The password hash is never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name.
//  Email        – optional, unique when present.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    `db:"id" json:"id"`
    Username     string    `db:"username" json:"username"`
    PasswordHash string    `db:"password_hash" json:"-"`
    Name         string    `db:"name" json:"name"`
    Email        *string   `db:"email" json:"email"`
    Role         string    `db:"role" json:"role"`
    CreatedAt    time.Time `db:"created_at" json:"created_at"`
    UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
    return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether r is a known role name.
func ValidRole(r string) bool {
    return r == RoleUser || r == RoleAdmin
}

// AuthToken models an entry in the `auth_tokens` table.  Only the SHA‑256
// digest of the token handed to the client is stored.  Tokens do not
// expire; they disappear together with their user.
type AuthToken struct {
    ID        uint64    `db:"id"`
    UserID    uint64    `db:"user_id"`
    TokenHash string    `db:"token_hash"`
    CreatedAt time.Time `db:"created_at"`
}

// UserPatch carries a partial update of a user.  Nil pointers and unset
// Nullable values leave the stored column untouched.
type UserPatch struct {
    Name  *string
    Email Nullable[string]
    Role  *string
}
