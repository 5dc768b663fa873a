package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInput struct {
	Name  string `json:"name" validate:"required"`
	Day   string `json:"day" validate:"omitempty,datetime=2006-01-02"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidator_Check(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		input  testInput
		fields []FieldError
	}{
		{name: "valid", input: testInput{Name: "Ana", Day: "2024-03-10", Email: "ana@test.cd"}},
		{
			name:  "required",
			input: testInput{},
			fields: []FieldError{
				{Field: "name", Error: "this field is required"},
			},
		},
		{
			name:  "bad date & email",
			input: testInput{Name: "Ana", Day: "10/03/2024", Email: "lol"},
			fields: []FieldError{
				{Field: "day", Error: "day has an invalid format"},
				{Field: "email", Error: "email must be a valid email address"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(&tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.True(t, IsValidationError(err))
			assert.Equal(t, tt.fields, err.(*ValidationError).Fields)
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ana", CleanString("  Ana\t"))
	assert.Equal(t, "ana", CleanString(" ANA ", true))
	assert.Equal(t, "", CleanString("   "))
}
