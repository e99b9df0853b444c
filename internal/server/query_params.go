package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicebuilder/internal/analytics"
)

// listQuery reads the q and status query parameters shared by the list,
// analytics and export endpoints.
func listQuery(c *gin.Context) analytics.Query {
	return analytics.Query{
		Search: strings.TrimSpace(c.Query("q")),
		Status: strings.TrimSpace(c.Query("status")),
	}
}

func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}
