package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInner struct {
	Port  string `koanf:"port" validate:"omitempty,numeric"`
	Level string `koanf:"level" validate:"oneof=debug info"`
}

type sample struct {
	Inner sampleInner `koanf:"db"`
	Name  string      `koanf:"name" validate:"required"`
	Short string      `validate:"omitempty,min=3"`
}

func TestStructValid(t *testing.T) {
	t.Parallel()

	err := Struct(validator.New(), &sample{
		Inner: sampleInner{Port: "3306", Level: "info"},
		Name:  "app",
	})
	assert.NoError(t, err)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	err := Struct(validator.New(), &sample{
		Inner: sampleInner{Port: "33o6", Level: "trace"},
		Short: "ab",
	})
	require.Error(t, err)

	var fieldErrs Errors
	require.ErrorAs(t, err, &fieldErrs)

	assert.ElementsMatch(t, Errors{
		{Field: "db.port", Error: "must be numeric"},
		{Field: "db.level", Error: "must be one of: debug info"},
		{Field: "name", Error: "is required"},
		{Field: "Short", Error: "must be at least 3 characters"},
	}, fieldErrs)
	assert.Contains(t, err.Error(), "db.port must be numeric")
}
