package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createContactRequest struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsPrimary bool   `json:"is_primary"`
}

func (s *Server) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Create(c.Request.Context(), contactdomain.CreateContactRequest{
		CompanyID: strings.TrimSpace(req.CompanyID),
		Name:      strings.TrimSpace(req.Name),
		Title:     strings.TrimSpace(req.Title),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "contact created", resp)
}

func (s *Server) ListContacts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CompanyID   string `form:"company_id"`
		Name        string `form:"name"`
		TrashedOnly bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListContactRequest{
		Pagination:  query.Pagination,
		CompanyID:   strings.TrimSpace(query.CompanyID),
		Name:        strings.TrimSpace(query.Name),
		TrashedOnly: query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contacts", resp)
}

func (s *Server) GetContactByID(c *gin.Context) {
	resp, err := s.contactSvc.GetByID(c.Request.Context(), contactdomain.GetContactRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contact", resp)
}

type updateContactRequest struct {
	Name      *string `json:"name"`
	Title     *string `json:"title"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	IsPrimary *bool   `json:"is_primary"`
}

func (s *Server) UpdateContact(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Update(c.Request.Context(), contactdomain.UpdateContactRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      req.Name,
		Title:     req.Title,
		Email:     req.Email,
		Phone:     req.Phone,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contact updated", resp)
}

func (s *Server) TrashContact(c *gin.Context) {
	if err := s.contactSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contact trashed", nil)
}

func (s *Server) RestoreContact(c *gin.Context) {
	if err := s.contactSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contact restored", nil)
}

func (s *Server) PurgeContact(c *gin.Context) {
	if err := s.contactSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "contact purged", nil)
}

func isContactValidationError(err error) bool {
	switch err {
	case contactdomain.ErrInvalidOrganization,
		contactdomain.ErrInvalidID,
		contactdomain.ErrInvalidName,
		contactdomain.ErrInvalidCompany:
		return true
	default:
		return false
	}
}
