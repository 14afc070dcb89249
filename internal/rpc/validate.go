package rpc

import (
	"regexp"
	"strconv"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[\+\d\s\-\(\)]{7,20}$`)

// NewValidator reads `binding` tags, like gin does, and knows the portal's custom rules.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")

	// registrations only fail on an empty tag name or nil func
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("maxbytes", validateMaxBytes)

	return v
}

// password: at least one upper case letter, one lower case letter and one digit.
func validatePassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// maxbytes=N bounds the UTF-8 encoded length, where max counts runes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
