package api

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// MarkReadRequest marks all notifications read for a user.
type MarkReadRequest struct {
	UserEmail string `json:"user_email"`
}
