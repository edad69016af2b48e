package apperrors

import (
	"net/http"
)

/*
Factories and predefined values for the business errors of the media domain.
*/

// =========================================================================
// Factories
// =========================================================================

// ErrNotFound converts a repository miss into a 404
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - 409
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - generic 409
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - 400
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus - 409
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// =========================================================================
// Predefined values
// =========================================================================

// --- Media ---

var ErrMusicNotFound = New(
	CodeNotFound,
	"music",
	"Music not found",
	http.StatusNotFound,
)

var ErrVideoNotFound = New(
	CodeNotFound,
	"video",
	"Video not found",
	http.StatusNotFound,
)

var ErrTagNotFound = New(
	CodeNotFound,
	"tag",
	"One or more tags do not exist",
	http.StatusBadRequest,
)

// --- Interactions ---

var ErrCommentNotFound = New(
	CodeNotFound,
	"comment",
	"Comment not found",
	http.StatusNotFound,
)

// ErrCommentNotOwned - only the author may delete a comment.
var ErrCommentNotOwned = New(
	CodeForbidden,
	"comment",
	"You can only delete your own comments",
	http.StatusForbidden,
)

// --- Uploads & Files ---

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"upload",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"upload",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

var ErrEmptyFile = New(
	CodeValidationFailed,
	"upload",
	"The provided file is empty",
	http.StatusBadRequest,
)

var ErrUnknownMediaKind = New(
	CodeValidationFailed,
	"upload",
	"Unknown media kind, expected music or video",
	http.StatusBadRequest,
)

// ErrDuplicateUpload - the same user staged the same title moments ago.
var ErrDuplicateUpload = New(
	CodeDuplicateUpload,
	"upload",
	"The same file was submitted moments ago, please wait before retrying",
	http.StatusConflict,
)

var ErrUploadSessionNotFound = New(
	CodeNotFound,
	"upload",
	"Upload session not found",
	http.StatusNotFound,
)

// ErrUploadSessionClosed - the session is no longer in the staged state.
var ErrUploadSessionClosed = New(
	CodeInvalidStatus,
	"upload",
	"Upload session is no longer open",
	http.StatusConflict,
)

// --- Auth ---

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrUsernameAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Username already in use",
	http.StatusConflict,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)
