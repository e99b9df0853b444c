package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicebuilder/internal/export"
)

func (s *Server) GetAnalytics(c *gin.Context) {
	summary, err := s.analyticsSvc.Summary(c.Request.Context(), listQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) ExportWorkbook(c *gin.Context) {
	data, err := s.exportSvc.Workbook(c.Request.Context(), listQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, data)
}
