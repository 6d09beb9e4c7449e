// Package errors writes the JSON error envelope returned by every API route.
package errors

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
)

// Error codes carried in ErrorDetail.Code.
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN"
	ErrConflict           = "CONFLICT"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

const validationMessage = "Validation failed for one or more fields"

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

var (
	setupOnce  sync.Once
	setupErr   error
	translator ut.Translator
)

// SetupValidator prepares gin's validator for client-facing messages:
// fields are reported by their json or form name and rule failures are
// rendered in English. Call it once before the router starts serving.
func SetupValidator() error {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)

		english := en.New()
		trans, _ := ut.New(english, english).GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
			setupErr = err
			return
		}
		translator = trans
	})
	return setupErr
}

// wireName resolves the name a client used for a struct field.
func wireName(f reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		switch name {
		case "":
			continue
		case "-":
			return ""
		default:
			return name
		}
	}
	return f.Name
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	reject(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest returns a 400 with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	reject(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// Unauthorized returns a 401 when the caller cannot be identified.
func Unauthorized(c *gin.Context, message string) {
	reject(c, http.StatusUnauthorized, ErrUnauthorized, message, nil)
}

// Forbidden returns a 403 when the caller may not touch the resource.
func Forbidden(c *gin.Context, message string) {
	reject(c, http.StatusForbidden, ErrForbidden, message, nil)
}

// Conflict returns a 409 for requests that clash with current state.
func Conflict(c *gin.Context, message string) {
	reject(c, http.StatusConflict, ErrConflict, message, nil)
}

// FieldError returns a 400 validation response for a single field.
// Used for rules enforced outside the validator, such as filter ranges.
func FieldError(c *gin.Context, field, message string) {
	reject(c, http.StatusBadRequest, ErrValidation, validationMessage,
		map[string]interface{}{field: message})
}

// ValidationError turns binding failures into a 400 keyed by field name.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = describe(fe)
	}
	reject(c, http.StatusBadRequest, ErrValidation, validationMessage, details)
}

func describe(fe validator.FieldError) string {
	if translator != nil {
		return fe.Translate(translator)
	}
	if fe.Param() != "" {
		return fe.Field() + " failed the " + fe.Tag() + "=" + fe.Param() + " rule"
	}
	return fe.Field() + " failed the " + fe.Tag() + " rule"
}

// InternalServerError returns a 500. err is logged and never sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	fail(c, http.StatusInternalServerError, ErrInternalServer, message, err)
}

// ServiceUnavailable returns a 503 when a dependency is down.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	fail(c, http.StatusServiceUnavailable, ErrServiceUnavailable, message, err)
}

// reject answers a client mistake, logged at warn.
func reject(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	fields := envelopeFields(c, code, message)
	if details != nil {
		fields["details"] = details
	}
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Client error", fields)
	}
	write(c, status, code, message, details)
}

// fail answers a server-side failure, logged at error with the cause.
func fail(c *gin.Context, status int, code, message string, err error) {
	fields := envelopeFields(c, code, message)
	fields["method"] = c.Request.Method
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Server error", err, fields)
	}
	write(c, status, code, message, nil)
}

func envelopeFields(c *gin.Context, code, message string) map[string]interface{} {
	return map[string]interface{}{
		"code":       code,
		"reason":     message,
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
	}
}

func write(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}
