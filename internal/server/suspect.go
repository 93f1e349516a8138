package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createSuspectRequest struct {
	CompanyID     string   `json:"company_id"`
	ContactIDs    []string `json:"contact_ids"`
	InterestLevel string   `json:"interest_level"`
	Source        string   `json:"source"`
	Notes         string   `json:"notes"`
}

func (s *Server) CreateSuspect(c *gin.Context) {
	var req createSuspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.suspectSvc.Create(c.Request.Context(), suspectdomain.CreateSuspectRequest{
		CompanyID:     strings.TrimSpace(req.CompanyID),
		ContactIDs:    req.ContactIDs,
		InterestLevel: strings.TrimSpace(req.InterestLevel),
		Source:        strings.TrimSpace(req.Source),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "suspect created", resp)
}

func (s *Server) ListSuspects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status        string `form:"status"`
		InterestLevel string `form:"interest_level"`
		CompanyID     string `form:"company_id"`
		TrashedOnly   bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.suspectSvc.List(c.Request.Context(), suspectdomain.ListSuspectRequest{
		Pagination:    query.Pagination,
		Status:        strings.TrimSpace(query.Status),
		InterestLevel: strings.TrimSpace(query.InterestLevel),
		CompanyID:     strings.TrimSpace(query.CompanyID),
		TrashedOnly:   query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspects", resp)
}

func (s *Server) GetSuspectByID(c *gin.Context) {
	resp, err := s.suspectSvc.GetByID(c.Request.Context(), suspectdomain.GetSuspectRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect", resp)
}

type updateSuspectRequest struct {
	InterestLevel *string `json:"interest_level"`
	Source        *string `json:"source"`
	Notes         *string `json:"notes"`
}

func (s *Server) UpdateSuspect(c *gin.Context) {
	var req updateSuspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.suspectSvc.Update(c.Request.Context(), suspectdomain.UpdateSuspectRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		InterestLevel: req.InterestLevel,
		Source:        req.Source,
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect updated", resp)
}

type updateSuspectStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateSuspectStatus(c *gin.Context) {
	var req updateSuspectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.suspectSvc.UpdateStatus(c.Request.Context(), suspectdomain.UpdateStatusRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: suspectdomain.Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect status updated", resp)
}

func (s *Server) AddSuspectFollowUp(c *gin.Context) {
	var req followUpPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fields, err := parseFollowUpPayload(req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.suspectSvc.AddFollowUp(c.Request.Context(), suspectdomain.AddFollowUpRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		Date:             fields.Date,
		Type:             fields.Type,
		Comment:          fields.Comment,
		NextFollowUpAt:   fields.NextFollowUpAt,
		NextFollowUpType: fields.NextFollowUpType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "follow-up recorded", resp)
}

func (s *Server) ListSuspectFollowUps(c *gin.Context) {
	resp, err := s.suspectSvc.ListFollowUps(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "follow-ups", resp)
}

type convertSuspectRequest struct {
	ProspectStatus string `json:"prospect_status"`
}

func (s *Server) ConvertSuspect(c *gin.Context) {
	var req convertSuspectRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.suspectSvc.Convert(c.Request.Context(), suspectdomain.ConvertSuspectRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		ProspectStatus: strings.TrimSpace(req.ProspectStatus),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "suspect converted", resp)
}

func (s *Server) TrashSuspect(c *gin.Context) {
	if err := s.suspectSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect trashed", nil)
}

func (s *Server) RestoreSuspect(c *gin.Context) {
	if err := s.suspectSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect restored", nil)
}

func (s *Server) PurgeSuspect(c *gin.Context) {
	if err := s.suspectSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "suspect purged", nil)
}

func isSuspectValidationError(err error) bool {
	switch err {
	case suspectdomain.ErrInvalidOrganization,
		suspectdomain.ErrInvalidID,
		suspectdomain.ErrInvalidCompany,
		suspectdomain.ErrInvalidStatus,
		suspectdomain.ErrInvalidInterestLevel,
		suspectdomain.ErrInvalidFollowUp:
		return true
	default:
		return false
	}
}
