package models

import "time"

// Role enumerates the access levels known to the service.
type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Staff represents an authenticated uploader stored in the staff table.
// Only the bcrypt digest of the password is ever persisted.
type Staff struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
