package handler

import "github.com/otec/backoffice/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success   bool           `json:"success" example:"false"`
	Error     *dto.ErrorInfo `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty" example:"8d1f0b7e-2c1a-4f6e-9a53-0c2b1f7d9e11"`
}
