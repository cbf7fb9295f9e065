package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=admin customer"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(signup{Name: "Ada", Email: "ada@example.com", Age: 36}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Email: "nope", Age: 200, Role: "root"})

	require.ErrorIs(t, err, ErrInvalid)
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "is required", vErr.Fields["name"])
	assert.Equal(t, "must be a valid email", vErr.Fields["email"])
	assert.Equal(t, "must be at most 150", vErr.Fields["age"])
	assert.Equal(t, "must be one of [admin customer]", vErr.Fields["role"])
	assert.Contains(t, err.Error(), "email must be a valid email")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("quantity", 3, "gt=0"))

	err := Var("quantity", 0, "gt=0")

	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "quantity must be greater than 0")
}
