package types

// User represents an account that owns ledger entries.
// It is created by registration and is never updated or removed.
type User struct {
	// ID is the store-assigned identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the login identifier. It is unique across all users and
	// compared exactly as stored.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses or logs.
	PasswordHash string `json:"-" db:"password_hash"`
}

// Registration carries the fields needed to create a User.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials carries the fields needed to verify a login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
