package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ID is an upstream identifier. n8n has used both numeric and string ids,
// so numbers are accepted and kept as their decimal text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
		*id = ""
	case string:
		*id = ID(v)
	case float64:
		*id = ID(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(*id)}
	}

	return nil
}

// rule ties a JSON field to the message reported when any of its checks fail.
// Several fields may share one message; it is reported once.
type rule struct {
	field   string
	message string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterStructValidation(executionStructLevel, Execution{})
	v.RegisterStructValidation(nodeStructLevel, Node{})

	return v
}

// violations runs the validator on s and returns the messages of the failed
// rules, in rule order.
func violations(s any, rules []rule) []string {
	messages := []string{}

	err := validate.Struct(s)
	if err == nil {
		return messages
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(messages, err.Error())
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}

	reported := make(map[string]bool, len(rules))

	for _, r := range rules {
		if failed[r.field] && !reported[r.message] {
			reported[r.message] = true
			messages = append(messages, r.message)
		}
	}

	return messages
}

func executionStructLevel(sl validator.StructLevel) {
	e, ok := sl.Current().Interface().(Execution)
	if !ok {
		return
	}

	if e.StartTime == nil {
		sl.ReportError(e.StartTime, "startTime", "StartTime", "required", "")
	}

	if isBefore(e.EndTime, e.StartTime) {
		sl.ReportError(e.EndTime, "endTime", "EndTime", "gtefield", "StartTime")
	}
}

func nodeStructLevel(sl validator.StructLevel) {
	n, ok := sl.Current().Interface().(Node)
	if !ok {
		return
	}

	if isBefore(n.EndTime, n.StartTime) {
		sl.ReportError(n.EndTime, "endTime", "EndTime", "gtefield", "StartTime")
	}
}

// stringOrNil maps an absent or empty upstream string to null.
func stringOrNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}

	return s
}

// positiveOrNil maps an absent or zero upstream number to null.
func positiveOrNil(f *float64) *float64 {
	if f == nil || *f == 0 {
		return nil
	}

	return f
}
