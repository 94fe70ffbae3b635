// File: /utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func SendError(c *gin.Context, status int, err string) {
	c.JSON(status, ErrorResponse{
		Error: err,
		Code:  status,
	})
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(c *gin.Context, status int, err string, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   err,
		Message: message,
		Code:    status,
	})
}

func SendValidationError(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed",
		Message: err,
		Code:    http.StatusBadRequest,
	})
}

func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
