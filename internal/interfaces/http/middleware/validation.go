package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report JSON field names, falling
// back to form names for query bindings
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			}
			return name
		}
		return ""
	})
}

// ValidationDetails lists one entry per rejected field, addressed by its
// JSON path such as "items[0].quantity". Errors that did not come from the
// validator yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := fe.Field()
		if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
			path = rest
		}
		details[i] = dto.ValidationDetail{Field: path, Message: getValidationMessage(fe)}
	}
	return details
}

// HandleValidationError aborts with the field details of err
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", getRequestID(c), ValidationDetails(err)))
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"numeric":  "Must be numeric",
	"alphanum": "Must be alphanumeric",
	"alpha":    "Must contain only letters",
}

var paramMessages = map[string]string{
	"len":      "Must be exactly %s characters",
	"oneof":    "Must be one of: %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"gt":       "Must be greater than %s",
	"lt":       "Must be less than %s",
	"datetime": "Must be a date in format %s",
	"eqfield":  "Must match %s",
}

func getValidationMessage(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()
	if msg, ok := fixedMessages[tag]; ok {
		return msg
	}
	if format, ok := paramMessages[tag]; ok {
		return strings.Replace(format, "%s", param, 1)
	}

	kind := fe.Type().Kind()
	switch {
	case tag == "min" && kind == reflect.String:
		return "Must be at least " + param + " characters"
	case tag == "min" && (kind == reflect.Slice || kind == reflect.Array):
		return "Must contain at least " + param + " item(s)"
	case tag == "min":
		return "Must be at least " + param
	case tag == "max" && kind == reflect.String:
		return "Must be at most " + param + " characters"
	case tag == "max":
		return "Must be at most " + param
	}
	return "Invalid value"
}
