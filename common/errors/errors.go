package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error represents an application error
type Error struct {
	Code    int
	Message string
	// Fields are merged into the response body next to the message.
	Fields map[string]any
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// With adds a response field and returns e.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// Body is the JSON response for e.
func (e *Error) Body() gin.H {
	body := gin.H{"message": e.Message}
	for k, v := range e.Fields {
		body[k] = v
	}
	return body
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

// Internal reports a server side failure. The cause is echoed to the client
// as "error".
func Internal(message string, err error) *Error {
	e := New(http.StatusInternalServerError, message, err)
	if err != nil {
		e.With("error", err.Error())
	}
	return e
}

// ErrorMiddleware renders the last error attached to the context. Errors that
// are not *Error become a 500 carrying the error text.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := err.(*Error)
		if !ok {
			appErr = Internal(err.Error(), err)
			delete(appErr.Fields, "error")
		}

		if appErr.Code >= http.StatusInternalServerError {
			zap.L().Error("Request failed",
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err))
		}
		c.AbortWithStatusJSON(appErr.Code, appErr.Body())
	}
}
