package fastlog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is the client-supplied shape of a FastLog. Any ID it carries is ignored.
type Input struct {
	ID        *int64  `json:"id"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	FastType  string  `json:"fastType" validate:"required,fasttype"`
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("fasttype", func(fl validator.FieldLevel) bool {
		return FastType(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the input and converts it to a FastLog with no ID.
func (in Input) Validate() (*FastLog, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate fast log: %w", err)
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		return nil, &ValidationError{Fields: fields}
	}

	d, err := ParseDate(in.Date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "must be YYYY-MM-DD"}}
	}
	return &FastLog{
		Date:      d,
		FastType:  FastType(in.FastType),
		Completed: in.Completed,
		Notes:     in.Notes,
	}, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be YYYY-MM-DD"
	case "fasttype":
		return "must be one of RELIGIOUS, INTERMITTENT"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
