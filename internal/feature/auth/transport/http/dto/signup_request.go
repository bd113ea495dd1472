package dto

// SignupRequest represents the request body for the /signup endpoint.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body shared by the auth endpoints.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
