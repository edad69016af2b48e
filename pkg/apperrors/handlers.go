package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Status  int       `json:"status"`
	Error   *AppError `json:"error"`
}

// GinErrorHandler writes AppErrors to a gin context
type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}
	if appErr.HTTPCode >= 500 && !h.Debug {
		// hide internals in production
		appErr = appErr.WithDetails(nil)
		appErr.Message = "Internal server error"
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error", "error", err.Error())
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Success: false,
		Status:  appErr.HTTPCode,
		Error:   appErr,
	})
}

var defaultHandler = &GinErrorHandler{Debug: true}

// SetDebug toggles whether 5xx messages are exposed to clients.
func SetDebug(debug bool) {
	defaultHandler = &GinErrorHandler{Debug: debug}
}

// HandleError - quick helper for gin handlers
func HandleError(c *gin.Context, err error) {
	defaultHandler.HandleGinError(c, err)
}

// AsAppError tries to unwrap err into an *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HandleValidationError turns a binding failure into a 400
func HandleValidationError(c *gin.Context, err error) {
	HandleError(c, ValidationError(gin.H{"details": err.Error()}))
}
