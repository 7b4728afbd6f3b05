package admin

// ErrorResponse is the JSON envelope returned on any failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusUpdateRequest is the body of PUT /orders/{id}/status.
type statusUpdateRequest struct {
	Status string `json:"status"`
}
