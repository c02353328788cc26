package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const MessageSuccess = "Success"

// Resp is the envelope for every JSON response.
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// OK sends 200 JSON with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Resp{Message: MessageSuccess, Data: data})
}

// Error sends status with err's message. The error code mirrors the HTTP status.
func Error(c *gin.Context, status int, err error) {
	c.JSON(status, Resp{ErrorCode: status, Message: err.Error()})
}
