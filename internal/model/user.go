package model

import "time"

// User represents an account as stored in the `users` table. Every
// actor signs in with an email and password; Role decides which
// dashboard the account may use and IsVerified gates sign-in until the
// activation link has been followed.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	Name         – display name.
//	PasswordHash – bcrypt hashed password, never serialized.
//	Role         – Super Admin, Admin, Organisation or Activist. May be
//	               empty for accounts waiting for a designated role.
//	IsActive     – whether the account may sign in at all.
//	IsVerified   – whether the email address has been confirmed.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StaffProfile is the `staff_profiles` row attached to admin accounts.
//
// Fields:
//
//	UserID      – the admin user this profile belongs to.
//	Designation – free-text job title.
//	Duty        – event, cop or registrar.
//	CreatedAt   – timestamp of creation.
type StaffProfile struct {
	UserID      uint64    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Designation string    `json:"designation"`
	Duty        string    `json:"duty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA‑256 hex digest of the token value.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (null if still active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Action token purposes.
const (
	PurposeActivation    = "activation"
	PurposePasswordReset = "password_reset"
)

// ActionToken is a single-use emailed token (account activation or
// password reset). Like refresh tokens only the SHA-256 hash is stored.
type ActionToken struct {
	ID        uint64
	UserID    uint64
	Purpose   string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
