package handlers

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/pirouette/studio/pkg/errors"
	"github.com/pirouette/studio/pkg/response"
	appValidator "github.com/pirouette/studio/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// On failure a 400 response has already been written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(appValidator.Describe(err)))
		return false
	}
	return true
}
