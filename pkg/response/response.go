package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/pirouette/studio/pkg/errors"
)

// Success writes a JSON success response. The supplied fields are flattened into
// the body next to the success flag.
func Success(c *gin.Context, statusCode int, fields gin.H) {
	body := gin.H{}
	for key, value := range fields {
		body[key] = value
	}
	body["success"] = true
	c.JSON(statusCode, body)
}

// Error writes a JSON error response derived from an AppError. Errors that are
// not AppErrors render as a generic 500 so internal detail never leaks; the
// AppError's Fields are flattened next to the message.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := gin.H{}
	for key, value := range appErr.Fields {
		body[key] = value
	}
	body["success"] = false
	body["error"] = appErr.Message
	body["code"] = appErr.Code

	c.JSON(status, body)
}
