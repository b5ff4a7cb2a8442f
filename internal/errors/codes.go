// Package errors provides structured error handling for fitsherd.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, directory)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and directory I/O errors.
	CategoryIO Category = "IO"
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
	ErrCodeConfigNotFound     = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid      = "ERR_102_CONFIG_INVALID"
	ErrCodeStorageNotWritable = "ERR_103_STORAGE_NOT_WRITABLE"

	// IO errors (200-299)
	ErrCodeDirNotFound     = "ERR_201_DIR_NOT_FOUND"
	ErrCodeFileUnreadable  = "ERR_202_FILE_UNREADABLE"
	ErrCodeNotFITS         = "ERR_203_NOT_FITS"
	ErrCodeManifestInvalid = "ERR_204_MANIFEST_INVALID"
	ErrCodeWriteFailed     = "ERR_205_WRITE_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput       = "ERR_401_INVALID_INPUT"
	ErrCodeQueryMismatch      = "ERR_402_QUERY_MISMATCH"
	ErrCodeKeywordNotTracked  = "ERR_403_KEYWORD_NOT_TRACKED"
	ErrCodeMissingHeaderValue = "ERR_404_MISSING_HEADER_VALUE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Per-file IO errors are warnings: the surrounding scan skips the file and
// continues. Directory, config, and storage errors abort the operation.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeFileUnreadable, ErrCodeNotFITS:
		return SeverityWarning
	case ErrCodeDirNotFound, ErrCodeStorageNotWritable:
		return SeverityFatal
	}
	return SeverityError
}
