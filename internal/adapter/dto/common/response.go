package common

// SuccessResponse is the envelope for every successful response
type SuccessResponse struct {
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for every error response
type ErrorResponse struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ListResponse wraps an unpaginated collection
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
}
