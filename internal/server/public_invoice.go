package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	publicinvoicedomain "github.com/smallbiznis/invoicebuilder/internal/publicinvoice/domain"
)

type publicInvoiceErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) GetPublicInvoice(c *gin.Context) {
	token, ok := s.publicInvoiceToken(c)
	if !ok {
		return
	}

	resp, err := s.publicInvoiceSvc.GetInvoiceForPublicView(c.Request.Context(), token)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RenderPublicInvoice(c *gin.Context) {
	token, ok := s.publicInvoiceToken(c)
	if !ok {
		return
	}

	doc, err := s.publicInvoiceSvc.RenderPublicDocument(c.Request.Context(), token)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.Data(http.StatusOK, doc.ContentType, []byte(doc.HTML))
}

func (s *Server) publicInvoiceToken(c *gin.Context) (string, bool) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		s.respondPublicInvoiceUnavailable(c)
		return "", false
	}
	if !s.publicInvoiceLimiter.Allow(publicInvoiceRateKey(token, c.ClientIP())) {
		AbortWithError(c, ErrRateLimited)
		return "", false
	}
	return token, true
}

func publicInvoiceRateKey(token string, ip string) string {
	if token == "" {
		return ""
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return token + ":" + ip
}

func (s *Server) handlePublicInvoiceError(c *gin.Context, err error) {
	if errors.Is(err, publicinvoicedomain.ErrInvoiceUnavailable) {
		s.respondPublicInvoiceUnavailable(c)
		return
	}
	AbortWithError(c, err)
}

func (s *Server) respondPublicInvoiceUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, publicInvoiceErrorResponse{
		Code:    "INVOICE_NOT_AVAILABLE",
		Message: "This invoice link is no longer available.",
	})
}
