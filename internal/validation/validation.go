// Package validation collects field-level input violations and exposes them as
// a typed error. Struct rules run through go-playground/validator with the
// shop-specific tags registered below.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Violations maps a field name to a human readable message.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a violation.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Merge copies other into v, keeping violations already present.
func (v Violations) Merge(other Violations) {
	for f, m := range other {
		v.Add(f, m)
	}
}

// Err returns nil when no violation was recorded, an *Error otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error is returned for bad input, before any storage attempt.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Violations[f])
	}
	return strings.Join(msgs, "; ")
}

// New builds a single-field validation error.
func New(field, msg string) error {
	return &Error{Violations: Violations{field: msg}}
}

// IsValidation reports whether err carries a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
	}
}

// NonNegativeFloat flags negative and non-finite amounts.
func NonNegativeFloat(field string, val float64, v Violations) {
	switch {
	case math.IsNaN(val) || math.IsInf(val, 0):
		v.Add(field, field+" must be a finite number")
	case val < 0:
		v.Add(field, field+" must not be negative")
	}
}

// RangeFloat flags values outside [minVal, maxVal], NaN included.
func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if math.IsNaN(val) || val < minVal || val > maxVal {
		v.Add(field, fmt.Sprintf("%s must be between %g and %g", field, minVal, maxVal))
	}
}

// DateOrder flags a range whose start is after its end.
func DateOrder(field string, from, to time.Time, v Violations) {
	if from.After(to) {
		v.Add(field, "start date must not be after end date")
	}
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	vinPattern   = regexp.MustCompile(`^[A-Z0-9]{17}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("shopemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("vin", func(fl validator.FieldLevel) bool {
		return vinPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// Struct runs the validate tags of s and converts failures to Violations.
// The prefix is prepended to every field name (e.g. "customer_").
func Struct(prefix string, s any) Violations {
	out := Violations{}
	err := validate.Struct(s)
	if err == nil {
		return out
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out.Add(prefix+"record", err.Error())
		return out
	}
	for _, fe := range fieldErrs {
		name := prefix + fe.Field()
		out.Add(name, message(name, fe))
	}
	return out
}

func message(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "vin":
		return name + " must be exactly 17 alphanumeric characters"
	case "shopemail":
		return name + " is not a valid email address"
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}
