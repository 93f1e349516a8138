package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	employeedomain "github.com/leadstack/crm/internal/employee/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createEmployeeRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	JoiningDate string `json:"joining_date"`
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	joiningDate, err := parseOptionalTime(req.JoiningDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("joining_date", "invalid_joining_date", "invalid joining date"))
		return
	}

	resp, err := s.employeeSvc.Create(c.Request.Context(), employeedomain.CreateEmployeeRequest{
		UserID:      strings.TrimSpace(req.UserID),
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Designation: strings.TrimSpace(req.Designation),
		Department:  strings.TrimSpace(req.Department),
		JoiningDate: joiningDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "employee created", resp)
}

func (s *Server) ListEmployees(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		Department  string `form:"department"`
		TrashedOnly bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.employeeSvc.List(c.Request.Context(), employeedomain.ListEmployeeRequest{
		Pagination:  query.Pagination,
		Name:        strings.TrimSpace(query.Name),
		Department:  strings.TrimSpace(query.Department),
		TrashedOnly: query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employees", resp)
}

func (s *Server) GetEmployeeByID(c *gin.Context) {
	resp, err := s.employeeSvc.GetByID(c.Request.Context(), employeedomain.GetEmployeeRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employee", resp)
}

type updateEmployeeRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Designation *string `json:"designation"`
	Department  *string `json:"department"`
	JoiningDate *string `json:"joining_date"`
}

func (s *Server) UpdateEmployee(c *gin.Context) {
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := employeedomain.UpdateEmployeeRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Designation: req.Designation,
		Department:  req.Department,
	}
	if req.JoiningDate != nil {
		parsed, err := parseOptionalTime(*req.JoiningDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("joining_date", "invalid_joining_date", "invalid joining date"))
			return
		}
		domainReq.JoiningDate = parsed
	}

	resp, err := s.employeeSvc.Update(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employee updated", resp)
}

// AddEmployeeDocument accepts a multipart form with a "kind" field and a
// "file" part. The file streams straight to the storage provider.
func (s *Server) AddEmployeeDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "missing file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	resp, err := s.employeeSvc.AddDocument(c.Request.Context(), employeedomain.AddDocumentRequest{
		EmployeeID: strings.TrimSpace(c.Param("id")),
		Document: employeedomain.DocumentUpload{
			Kind:     employeedomain.DocumentKind(strings.TrimSpace(c.PostForm("kind"))),
			FileName: fileHeader.Filename,
			Content:  file,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "document uploaded", resp)
}

func (s *Server) ListEmployeeDocuments(c *gin.Context) {
	resp, err := s.employeeSvc.ListDocuments(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "documents", resp)
}

func (s *Server) RemoveEmployeeDocument(c *gin.Context) {
	err := s.employeeSvc.RemoveDocument(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("document_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "document removed", nil)
}

func (s *Server) TrashEmployee(c *gin.Context) {
	if err := s.employeeSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employee trashed", nil)
}

func (s *Server) RestoreEmployee(c *gin.Context) {
	if err := s.employeeSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employee restored", nil)
}

func (s *Server) PurgeEmployee(c *gin.Context) {
	if err := s.employeeSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "employee purged", nil)
}

func isEmployeeValidationError(err error) bool {
	switch err {
	case employeedomain.ErrInvalidOrganization,
		employeedomain.ErrInvalidID,
		employeedomain.ErrInvalidName,
		employeedomain.ErrInvalidDocument:
		return true
	default:
		return false
	}
}
