package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/logger"
)

var log = logger.New("api")

func init() {
	// report json field names instead of Go struct names in validation errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError writes err as {"message": ...} with the status of its kind
// and aborts the chain. Anything that is not an *apperror.Error is a 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("Internal server error", err)
	}

	if appErr.Kind == apperror.KindInternal {
		log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
	} else {
		log.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
	}

	c.AbortWithStatusJSON(appErr.Status(), gin.H{"message": appErr.Message})
}

// bindJSON decodes the request body into obj and turns decoding and
// validation failures into a 400 with a field level message
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, apperror.InvalidInput(bindingMessage(err), err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describeField(verrs[0])
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "Malformed JSON body"
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}

	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}

	return "Invalid request body"
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
