package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ValidationError is one field-level failure in a request body.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ReadAndValidateRequest binds the request into req, fills struct defaults,
// and validates. A non-nil return is the response payload describing what
// was wrong; handlers pass it straight to BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return describeErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return describeErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return describeErrors(err)
	}
	return nil
}

func describeErrors(err error) interface{} {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, describeFieldError(fe))
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func describeFieldError(fe validator.FieldError) ValidationError {
	field := fe.Field()
	ve := ValidationError{
		Code:   "ERR_" + strings.ToUpper(fe.Tag()),
		Field:  field,
		Params: map[string]interface{}{},
	}

	switch fe.Tag() {
	case "required":
		ve.Message = fmt.Sprintf("%s is required", field)
	case "min", "gte":
		ve.Message = boundMessage(fe, "at least")
		ve.Params["min"] = fe.Param()
	case "max", "lte":
		ve.Message = boundMessage(fe, "at most")
		ve.Params["max"] = fe.Param()
	case "gt":
		ve.Message = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		ve.Params["value"] = fe.Param()
	case "lt":
		ve.Message = fmt.Sprintf("%s must be less than %s", field, fe.Param())
		ve.Params["value"] = fe.Param()
	case "oneof":
		ve.Message = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
		ve.Params["options"] = strings.Split(fe.Param(), " ")
	default:
		ve.Message = fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
	return ve
}

func boundMessage(fe validator.FieldError, bound string) string {
	if fe.Type().Kind() == reflect.String {
		return fmt.Sprintf("%s must be %s %s characters", fe.Field(), bound, fe.Param())
	}
	return fmt.Sprintf("%s must be %s %s", fe.Field(), bound, fe.Param())
}
