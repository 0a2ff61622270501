package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform failure payload.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the payload for operations that return no record.
type MessageBody struct {
	Message string `json:"message"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageBody{Message: message})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: "Unauthorized"})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: message})
}

func InternalServerError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: message})
}
