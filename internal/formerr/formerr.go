// Package formerr turns validation failures into the field-keyed error map
// every form of the portal renders next to its inputs.
package formerr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Violation is one failed rule on one field path.
type Violation struct {
	Path    string
	Message string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FromViolations builds a fresh map.  When a path appears more than once the
// last message wins.
func FromViolations(vs []Violation) map[string]string {
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		out[v.Path] = v.Message
	}
	return out
}

// Violations lists the violations carried by a validator error in the order
// the validator reported them.  Other errors yield nil.
func Violations(err error) []Violation {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Violation{Path: path(fe), Message: message(fe)})
	}
	return out
}

// Map converts a validation error into the form error map.
func Map(err error) map[string]string {
	return FromViolations(Violations(err))
}

// Validate checks v against its `validate` tags.  It returns the error map
// and whether v is valid.
func Validate(v any) (map[string]string, bool) {
	if err := validate.Struct(v); err != nil {
		m := Map(err)
		if len(m) == 0 {
			// not a ValidationErrors, e.g. v is not a struct
			m = map[string]string{"": err.Error()}
		}
		return m, false
	}
	return map[string]string{}, true
}

// path drops the root struct name from the namespace:
// "SupplierForm.address.zipCode" becomes "address.zipCode".
func path(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with", "required_without":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Informe ao menos %s item(ns)", fe.Param())
		}
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("Deve ser no mínimo %s", fe.Param())
		}
		return fmt.Sprintf("Deve ter no mínimo %s caracteres", fe.Param())
	case "max":
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("Deve ser no máximo %s", fe.Param())
		}
		return fmt.Sprintf("Deve ter no máximo %s caracteres", fe.Param())
	case "len":
		return fmt.Sprintf("Deve ter %s caracteres", fe.Param())
	case "gt":
		return fmt.Sprintf("Deve ser maior que %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Deve ser maior ou igual a %s", fe.Param())
	case "numeric":
		return "Deve conter apenas números"
	case "oneof":
		return "Valor inválido"
	case "datetime":
		return "Data inválida"
	}
	return "Valor inválido"
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
