package domain

import "time"

// Result is the uniform outcome of a mutation, as returned to UI callers.
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Product *Product `json:"product,omitempty"`

	// Err carries the cause of a failure for status mapping; never serialised.
	Err error `json:"-"`
}

// OK builds a successful result.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail builds a failed result with a user-facing message.
func Fail(err error, message string) Result {
	return Result{Success: false, Message: message, Err: err}
}

// User is an authenticated principal.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}
