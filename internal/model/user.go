package model

import "time"

// Back-office roles carried in the JWT "role" claim.
const (
	RoleTravelAdmin  = "TRAVEL_ADMIN"
	RoleFinanceAdmin = "FINANCE_ADMIN"
)

// ActorLabel maps a role to the actor name written into activity entries.
// Unknown roles yield fallback.
func ActorLabel(role, fallback string) string {
	switch role {
	case RoleTravelAdmin:
		return "Travel Admin"
	case RoleFinanceAdmin:
		return "Finance Admin"
	}
	return fallback
}

// User represents a back-office account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – TRAVEL_ADMIN or FINANCE_ADMIN.
//  IsActive     – whether the account may sign in.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
