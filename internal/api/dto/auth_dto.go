package dto

// RegisterRequest payload for public registration. Role is optional and
// untrusted; it passes through the allow-list before use.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterResponse mirrors the registration contract.
type RegisterResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPayload is the public view of an account. The password hash is never
// part of any response.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse mirrors the login contract; the session token itself
// travels in the http-only cookie.
type LoginResponse struct {
	Success bool        `json:"success"`
	User    UserPayload `json:"user"`
}

// PasswordResetRequest asks for a reset token by email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
