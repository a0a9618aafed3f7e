package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest         = 40000
	CodeInvalidPromptType  = 40001
	CodeUnauthorized       = 40100
	CodeSessionNotFound    = 40401
	CodeTooManyRequests    = 42900
	CodeInternalServer     = 50000
	CodeCompletionFailed   = 50001
	CodeFileProcessing     = 50002
	CodeServiceUnavailable = 50300
)

// APIResponse is the error envelope. Successful calls return their payload
// unwrapped.
type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

func Abort(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
