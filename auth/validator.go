package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"relay-lab/errors"
)

var validate = validator.New()

// RegisterRequest carries the fields an account registration must
// satisfy before any cryptographic work happens.
type RegisterRequest struct {
	Nickname string   `validate:"required,min=3,max=24,alphanum"`
	Password string   `validate:"required,min=12,max=72"`
	Friends  []string `validate:"dive,required"`
	Groups   []string `validate:"dive,required"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
