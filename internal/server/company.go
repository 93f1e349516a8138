package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	companydomain "github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createCompanyRequest struct {
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Create(c.Request.Context(), companydomain.CreateCompanyRequest{
		Name:        strings.TrimSpace(req.Name),
		Industry:    strings.TrimSpace(req.Industry),
		Website:     strings.TrimSpace(req.Website),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Country:     strings.TrimSpace(req.Country),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "company created", resp)
}

func (s *Server) ListCompanies(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		Industry    string `form:"industry"`
		TrashedOnly bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.List(c.Request.Context(), companydomain.ListCompanyRequest{
		Pagination:  query.Pagination,
		Name:        strings.TrimSpace(query.Name),
		Industry:    strings.TrimSpace(query.Industry),
		TrashedOnly: query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "companies", resp)
}

func (s *Server) GetCompanyByID(c *gin.Context) {
	resp, err := s.companySvc.GetByID(c.Request.Context(), companydomain.GetCompanyRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company", resp)
}

type updateCompanyRequest struct {
	Name        *string `json:"name"`
	Industry    *string `json:"industry"`
	Website     *string `json:"website"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	Description *string `json:"description"`
}

func (s *Server) UpdateCompany(c *gin.Context) {
	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Update(c.Request.Context(), companydomain.UpdateCompanyRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        req.Name,
		Industry:    req.Industry,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company updated", resp)
}

func (s *Server) TrashCompany(c *gin.Context) {
	if err := s.companySvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company trashed", nil)
}

func (s *Server) RestoreCompany(c *gin.Context) {
	if err := s.companySvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company restored", nil)
}

func (s *Server) PurgeCompany(c *gin.Context) {
	if err := s.companySvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company purged", nil)
}

type companyAssignmentRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) AssignCompany(c *gin.Context) {
	var req companyAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.companySvc.Assign(c.Request.Context(), companydomain.AssignRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		UserID:    strings.TrimSpace(req.UserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "company assigned", nil)
}

func (s *Server) UnassignCompany(c *gin.Context) {
	err := s.companySvc.Unassign(c.Request.Context(), companydomain.AssignRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		UserID:    strings.TrimSpace(c.Param("user_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "company unassigned", nil)
}

func isCompanyValidationError(err error) bool {
	switch err {
	case companydomain.ErrInvalidOrganization,
		companydomain.ErrInvalidID,
		companydomain.ErrInvalidName:
		return true
	default:
		return false
	}
}
