package server

import (
	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  string   `json:"status"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func success(c *gin.Context, code int, data any) {
	c.JSON(code, APIResponse{Status: "success", Data: data})
}

func failure(c *gin.Context, code int, message string, errs ...string) {
	c.AbortWithStatusJSON(code, APIResponse{Status: "error", Message: message, Errors: errs})
}
