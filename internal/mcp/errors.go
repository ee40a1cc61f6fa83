package mcp

import (
	"context"
	"errors"
	"fmt"

	uierrors "github.com/Aman-CERP/uiground/internal/errors"
)

// MCP protocol error codes used by uiground.
const (
	// ErrCodeEmbeddingFailed indicates embedding generation failed.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params MCP error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// NewMethodNotFoundError creates a method-not-found MCP error.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("tool not found: %s", name),
	}
}

// MapError converts internal errors to MCP protocol errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var uerr *uierrors.Error
	if errors.As(err, &uerr) {
		return mapStructured(uerr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

// mapStructured maps uiground error codes onto MCP error codes.
func mapStructured(err *uierrors.Error) *MCPError {
	switch err.Code {
	case uierrors.ErrCodeInvalidInput, uierrors.ErrCodeInvalidQuery:
		return &MCPError{Code: ErrCodeInvalidParams, Message: err.Message}
	case uierrors.ErrCodeEmbeddingFailed, uierrors.ErrCodeModelLoadFailed:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: err.Message}
	case uierrors.ErrCodeEmbedderNotReady:
		return &MCPError{
			Code:    ErrCodeEmbeddingFailed,
			Message: "Embedding provider not ready. Call warm_embeddings or retry after initialization.",
		}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}
