package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return 0, false
	}
	return id, true
}

func requireTargetParam(c *gin.Context) (string, bool) {
	targetRef := c.Query("target")
	if targetRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target query parameter is required"})
		return "", false
	}
	return targetRef, true
}

func commentAnchorURL(targetURL string, commentID int64) string {
	return fmt.Sprintf("%s#comment-%d", targetURL, commentID)
}
