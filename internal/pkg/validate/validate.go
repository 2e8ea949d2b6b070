package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"taskhub/internal/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return domain.Role(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
			return domain.ProjectStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
			return domain.TaskStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
			return domain.TaskPriority(fl.Field().String()).IsValid()
		})
		instance = v
	})
	return instance
}

// Struct validates s against its `validate` tags and reports the first failure as a
// domain validation error.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Validation("Invalid input")
	}
	return domain.Validation("%s", message(fieldErrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please use a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "role":
		return fmt.Sprintf("Unknown role %q", fe.Value())
	case "project_status", "task_status":
		return fmt.Sprintf("Invalid status %q", fe.Value())
	case "task_priority":
		return fmt.Sprintf("Invalid priority %q", fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
