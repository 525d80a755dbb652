package normalize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// MinModelYear is the earliest accepted model year.
const MinModelYear = 1900

// nowFunc is replaced in tests.
var nowFunc = time.Now

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schema() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("modelyear", func(fl validator.FieldLevel) bool {
			y := fl.Field().Int()
			return y >= MinModelYear && y <= int64(MaxModelYear())
		})
		validate = v
	})
	return validate
}

// MaxModelYear is the latest accepted model year (next calendar year).
func MaxModelYear() int { return nowFunc().Year() + 1 }

// Validate checks a car against the record schema: title and description
// non-blank, year within [MinModelYear, MaxModelYear], and every numeric
// field non-negative. The first violation is returned as
// *domain.ValidationError.
func Validate(car *domain.Car) error {
	err := schema().Struct(car)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fieldPath(fe.Namespace()), Reason: reason(fe)}
}

// fieldPath strips the root struct name: "Car.specifications.torque" -> "specifications.torque".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "gte":
		return "must be >= " + fe.Param()
	case "modelyear":
		return fmt.Sprintf("must be between %d and %d", MinModelYear, MaxModelYear())
	default:
		return "is invalid"
	}
}
