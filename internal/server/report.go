package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetFunnelReport(c *gin.Context) {
	resp, err := s.reportSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "funnel report", resp)
}

func (s *Server) ExportFunnelReport(c *gin.Context) {
	reader, err := s.reportSvc.ExportPDF(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="funnel-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
