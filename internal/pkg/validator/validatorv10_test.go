package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name        string `json:"name" validate:"required,min=2,max=50,personname"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	Age         int    `json:"age" validate:"required,min=1,max=150"`
	DateOfBirth string `json:"date_of_birth" validate:"required,dateonly"`
}

type verify struct {
	OTP string `json:"otp" validate:"required,otp"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	valid := signup{Name: "Ada Lovelace", Email: "a@x.com", Password: "Secret1", Age: 30, DateOfBirth: "1990-01-01"}
	require.NoError(t, v.Validate(valid))

	tests := []struct {
		name   string
		mutate func(*signup)
		field  string
	}{
		{name: "short name", mutate: func(s *signup) { s.Name = "A" }, field: "name"},
		{name: "digits in name", mutate: func(s *signup) { s.Name = "R2D2" }, field: "name"},
		{name: "bad email", mutate: func(s *signup) { s.Email = "nope" }, field: "email"},
		{name: "short password", mutate: func(s *signup) { s.Password = "Ab1" }, field: "password"},
		{name: "no upper", mutate: func(s *signup) { s.Password = "secret1" }, field: "password"},
		{name: "no digit", mutate: func(s *signup) { s.Password = "Secrets" }, field: "password"},
		{name: "age", mutate: func(s *signup) { s.Age = 151 }, field: "age"},
		{name: "date format", mutate: func(s *signup) { s.DateOfBirth = "01/01/1990" }, field: "date_of_birth"},
		{name: "future date", mutate: func(s *signup) { s.DateOfBirth = "2999-01-01" }, field: "date_of_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := v.Validate(in)

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Values(), tt.field)
			assert.NotEmpty(t, verr.Values()[tt.field])
		})
	}
}

func TestV10Validator_OTP(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(verify{OTP: "123456"}))

	for _, bad := range []string{"", "12345", "1234567", "12a456", "012345"} {
		err := v.Validate(verify{OTP: bad})
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr, bad)
		assert.Contains(t, verr, "otp")
	}
}

func TestV10ValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
	assert.JSONEq(t, `{"otp":"bad"}`, V10ValidationError{"otp": "bad"}.Error())
}

func TestNewV10Validator_CustomMessages(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(signup{Name: "R2D2", Email: "a@x.com", Password: "secret", Age: 30, DateOfBirth: "1990-01-01"})

	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name can contain only letters and spaces", verr["name"])
	assert.Equal(t, "password must be at least 6 characters with an uppercase letter, a lowercase letter and a number", verr["password"])
}

func TestNewV10Validator_Repeatable(t *testing.T) {
	for range 2 {
		_, err := NewV10Validator()
		require.NoError(t, err)
	}
}
