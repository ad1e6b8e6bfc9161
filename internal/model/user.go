package model

import (
	"strings"
	"time"
)

// Roles recognised by the API.  Vendors manage events and drive
// simulations; customers place retrieval (purchase) requests.
const (
	RoleVendor   = "VENDOR"
	RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  The password is only ever kept as a bcrypt hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – VENDOR or CUSTOMER.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// NormalizeRole maps free-form input onto a known role, defaulting to
// CUSTOMER for anything unrecognised.
func NormalizeRole(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), RoleVendor) {
		return RoleVendor
	}
	return RoleCustomer
}
