package validation

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// RegisterCustom installs custom binding validations on gin's validator
// engine. Call once at startup.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("iso8601date", isISO8601Date)
}

// isISO8601Date accepts dates in YYYY-MM-DD form.
func isISO8601Date(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date into a UTC time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
