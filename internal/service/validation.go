package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// NewValidator returns a validator with the academic tags registered:
// "hhmm" for clock times and "weekday" for day tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseWeekday(fl.Field().String())
		return ok
	})
	return v
}

// validationError converts validator output into a typed error listing the
// offending fields.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed on %s", fe.Tag())
	}
	return appErrors.WithDetails(appErrors.ErrValidation, message, map[string]interface{}{"fields": fields})
}
