package service

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

// newValidator adds maxbytes, a byte-length bound for strings ("max" counts runes).
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}
