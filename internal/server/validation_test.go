package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Name     string  `validate:"required"`
	Email    string  `validate:"required,email"`
	Password string  `validate:"required,min=6"`
	Rating   float64 `validate:"gte=0,lte=5"`
}

func TestValidateStructValid(t *testing.T) {
	errs := ValidateStruct(signupForm{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret123",
		Rating:   4.5,
	})
	assert.Empty(t, errs)
}

func TestValidateStructCollectsErrors(t *testing.T) {
	errs := ValidateStruct(signupForm{
		Email:    "not-an-email",
		Password: "abc",
		Rating:   7,
	})

	fields := make(map[string]string)
	for _, e := range errs {
		fields[e.Field] = e.Message
	}

	assert.Equal(t, "Name is required", fields["Name"])
	assert.Equal(t, "Email must be a valid email address", fields["Email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["Password"])
	assert.Equal(t, "Rating must be less than or equal to 5", fields["Rating"])
}
