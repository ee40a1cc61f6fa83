// Package errors provides structured error handling for uiground.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Usage errors (caller misuse, surfaced to the immediate caller)
//   - 3XX: Resource lifecycle errors (embedding provider load/serve)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//
// Permissive-degradation conditions (unknown filter clause, invalid regex,
// missing semantic provider) are deliberately NOT represented here: the
// engine absorbs them at the point of detection and they never become
// errors.
package errors

import "strings"

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryUsage indicates caller misuse, fatal to that call only.
	CategoryUsage Category = "USAGE"
	// CategoryResource indicates shared-resource lifecycle errors.
	CategoryResource Category = "RESOURCE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Usage errors (200-299)
	ErrCodeEmbedderNotReady = "ERR_201_EMBEDDER_NOT_READY"
	ErrCodeClientClosed     = "ERR_202_CLIENT_CLOSED"

	// Resource errors (300-399)
	ErrCodeModelLoadFailed = "ERR_301_MODEL_LOAD_FAILED"
	ErrCodeEmbeddingFailed = "ERR_302_EMBEDDING_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidQuery      = "ERR_402_INVALID_QUERY"
	ErrCodeDimensionMismatch = "ERR_403_DIMENSION_MISMATCH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	switch {
	case strings.HasPrefix(code, "ERR_1"):
		return CategoryConfig
	case strings.HasPrefix(code, "ERR_2"):
		return CategoryUsage
	case strings.HasPrefix(code, "ERR_3"):
		return CategoryResource
	case strings.HasPrefix(code, "ERR_4"):
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives a default severity from an error code.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryResource:
		// A failed model load is terminal for the coordinator.
		return SeverityFatal
	case CategoryUsage, CategoryValidation:
		return SeverityError
	default:
		return SeverityError
	}
}
