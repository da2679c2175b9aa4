package api

import "github.com/gin-gonic/gin"

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

// FailWith reports a failure that still carries a payload, e.g. a conflict
// response referencing the already-existing record.
func FailWith(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: false, Message: message, Data: data})
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
