package server

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	importerdomain "github.com/leadstack/crm/internal/importer/domain"
)

// ImportSuspects streams the CSV body straight into the importer. With a
// multipart upload the "file" part is used; otherwise the raw request body
// is read as CSV.
func (s *Server) ImportSuspects(c *gin.Context) {
	reader, cleanup, err := importBody(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer cleanup()

	job, err := s.importSvc.ImportSuspects(c.Request.Context(), reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "import finished", job)
}

func (s *Server) GetImportJob(c *gin.Context) {
	resp, err := s.importSvc.GetJob(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "import job", resp)
}

func (s *Server) ListImportJobs(c *gin.Context) {
	resp, err := s.importSvc.ListJobs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "import jobs", resp)
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	contentType := strings.ToLower(strings.TrimSpace(c.ContentType()))
	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, nil, newValidationError("file", "invalid_file", "missing file")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, nil, invalidRequestError()
		}
		return file, func() { _ = file.Close() }, nil
	}
	return c.Request.Body, func() {}, nil
}

func isImportValidationError(err error) bool {
	switch err {
	case importerdomain.ErrInvalidOrganization,
		importerdomain.ErrInvalidCSV:
		return true
	default:
		return false
	}
}
