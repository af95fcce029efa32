package model

import "time"

// User represents a user in the database. Password holds the Argon2id hash.
type User struct {
	ID        int64     `db:"id"`
	Login     string    `db:"login"`
	FullName  string    `db:"full_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CreateUserRequest represents a user registration request.
type CreateUserRequest struct {
	Login    string `json:"login" validate:"min=1"`
	FullName string `json:"full_name" validate:"min=1"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=1"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=1"`
}

// UpdateUserRequest changes the caller's profile.
type UpdateUserRequest struct {
	FullName string `json:"full_name" validate:"min=1"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"min=1"`
	NewPassword string `json:"new_password" validate:"min=1"`
}

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	Token string `json:"token"`
}

// AccountResponse represents user data safe for API responses (no password).
type AccountResponse struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
