package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator reporting fields by their JSON (or query) names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	// decimal and date values validate as their numeric or time form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(dto.Date); ok && !d.IsZero() {
			return d.Time()
		}
		return nil
	}, dto.Date{})
	_ = v.RegisterValidation("money", money)

	return &Validator{validate: v}
}

// money checks the decimal itself rather than its float form, so amounts
// that would round in storage are refused.
func money(fl validator.FieldLevel) bool {
	if d, ok := rawDecimal(fl); ok {
		return dto.IsMoney(d)
	}
	if fl.Field().Kind() == reflect.Float64 {
		return dto.IsMoney(decimal.NewFromFloat(fl.Field().Float()))
	}
	return false
}

func rawDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return decimal.Decimal{}, false
	}
	f := reflect.Indirect(parent.FieldByName(fl.StructFieldName()))
	if !f.IsValid() || !f.CanInterface() {
		return decimal.Decimal{}, false
	}
	d, ok := f.Interface().(decimal.Decimal)
	return d, ok
}

// Validate runs struct tags on i and returns a bad request AppError listing
// every failing field.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return errorbank.BadRequest("validation failed", errorbank.WithDetail("fields", fields))
}

// Bind decodes the request into dst and validates it with the echo validator.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if msg, ok := he.Message.(string); ok {
				return errorbank.BadRequest(msg, errorbank.WithCause(err))
			}
		}
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if err := c.Validate(dst); err != nil {
		if _, ok := err.(*errorbank.AppError); ok {
			return err
		}
		return errorbank.BadRequest("validation failed", errorbank.WithCause(err))
	}
	return nil
}

// fieldPath drops the root struct name from the namespace, so nested lines
// read as "lines[0].debit".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "money":
		return "must have at most 2 decimal places and be below 1000000000000"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
