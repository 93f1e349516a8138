package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	vendordomain "github.com/leadstack/crm/internal/vendors/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createVendorRequest struct {
	Name         string   `json:"name"`
	Services     []string `json:"services"`
	ContactName  string   `json:"contact_name"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone"`
	PaymentTerms string   `json:"payment_terms"`
}

func (s *Server) CreateVendor(c *gin.Context) {
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.Create(c.Request.Context(), vendordomain.CreateVendorRequest{
		Name:         strings.TrimSpace(req.Name),
		Services:     req.Services,
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "vendor created", resp)
}

func (s *Server) ListVendors(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		Status      string `form:"status"`
		TrashedOnly bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.List(c.Request.Context(), vendordomain.ListVendorRequest{
		Pagination:  query.Pagination,
		Name:        strings.TrimSpace(query.Name),
		Status:      strings.TrimSpace(query.Status),
		TrashedOnly: query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendors", resp)
}

func (s *Server) GetVendorByID(c *gin.Context) {
	resp, err := s.vendorSvc.GetByID(c.Request.Context(), vendordomain.GetVendorRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendor", resp)
}

type updateVendorRequest struct {
	Name         *string  `json:"name"`
	Services     []string `json:"services"`
	ContactName  *string  `json:"contact_name"`
	ContactEmail *string  `json:"contact_email"`
	ContactPhone *string  `json:"contact_phone"`
	PaymentTerms *string  `json:"payment_terms"`
	Status       *string  `json:"status"`
}

func (s *Server) UpdateVendor(c *gin.Context) {
	var req updateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.Update(c.Request.Context(), vendordomain.UpdateVendorRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         req.Name,
		Services:     req.Services,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		PaymentTerms: req.PaymentTerms,
		Status:       req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendor updated", resp)
}

func (s *Server) TrashVendor(c *gin.Context) {
	if err := s.vendorSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendor trashed", nil)
}

func (s *Server) RestoreVendor(c *gin.Context) {
	if err := s.vendorSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendor restored", nil)
}

func (s *Server) PurgeVendor(c *gin.Context) {
	if err := s.vendorSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "vendor purged", nil)
}

func isVendorValidationError(err error) bool {
	switch err {
	case vendordomain.ErrInvalidOrganization,
		vendordomain.ErrInvalidID,
		vendordomain.ErrInvalidName,
		vendordomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
