package httptransport

import "github.com/gin-gonic/gin"

// APIResponse is the envelope used for error responses. Successful analysis
// responses return their payload directly; the frontend consumes it as-is.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondError writes a failure envelope with a human-readable message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
	})
}
