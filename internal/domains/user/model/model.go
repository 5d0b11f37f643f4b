package model

import (
	"time"

	"lodge/shared/constant"
	"lodge/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID        = "id"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldRole      = "role"
	FieldFullName  = "full_name"
	FieldLastLogin = "last_login"
	FieldActive    = "active"
)

// User is a dashboard account. Public visitors never hold one.
type User struct {
	ID        string     `db:"id"`
	Email     string     `db:"email"`
	Password  string     `db:"password"`
	Role      string     `db:"role"`
	FullName  *string    `db:"full_name"`
	LastLogin *time.Time `db:"last_login"`
	Active    bool       `db:"active"`
	model.Metadata
}

func (u User) IsAdmin() bool {
	if !u.Active {
		return false
	}

	return u.Role == constant.RoleAdmin || u.Role == constant.RoleSuperAdmin
}
