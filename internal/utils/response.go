package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/dto/common"
)

// HandleSuccess sends a success response with data
func HandleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(data))
}
