package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Sex      string `form:"sex" binding:"required,oneof=Man Woman"`
	Note     string `json:"note" binding:"max=3"`
}

func TestToDetails_UsesFormNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&signup{Email: "nope", Sex: "Other", Note: "toolong"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	details := ToDetails(err)
	assert.Equal(t, "is required", details["username"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be one of: Man Woman", details["sex"])
	assert.Equal(t, "must be at most 3 characters", details["note"])
}

func TestToDetails_JSONErrors(t *testing.T) {
	var v map[string]int
	err := json.Unmarshal([]byte(`{"a":`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
	assert.False(t, IsValidationError(err))
}
