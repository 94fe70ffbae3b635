package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sushicount-api/logger"
	"sushicount-api/repositories"
	"sushicount-api/utils"
)

// respondError maps repository errors onto status codes. notFound names the missing
// resource; anything unrecognised is logged and answered with a generic 500.
func respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrInvalidRequest):
		utils.SendError(c, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, repositories.ErrDuplicate):
		utils.SendError(c, http.StatusConflict, "Already exists")
	case errors.Is(err, repositories.ErrSessionClosed):
		utils.SendError(c, http.StatusConflict, "Session is closed")
	default:
		logger.Error("Request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}
