package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createProspectRequest struct {
	CompanyID      string   `json:"company_id"`
	ContactIDs     []string `json:"contact_ids"`
	ProspectStatus string   `json:"prospect_status"`
	Source         string   `json:"source"`
	Notes          string   `json:"notes"`
}

func (s *Server) CreateProspect(c *gin.Context) {
	var req createProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.prospectSvc.Create(c.Request.Context(), prospectdomain.CreateProspectRequest{
		CompanyID:      strings.TrimSpace(req.CompanyID),
		ContactIDs:     req.ContactIDs,
		ProspectStatus: strings.TrimSpace(req.ProspectStatus),
		Source:         strings.TrimSpace(req.Source),
		Notes:          strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "prospect created", resp)
}

func (s *Server) ListProspects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ProspectStatus string `form:"prospect_status"`
		CompanyID      string `form:"company_id"`
		IncludeWon     bool   `form:"include_won"`
		TrashedOnly    bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.prospectSvc.List(c.Request.Context(), prospectdomain.ListProspectRequest{
		Pagination:     query.Pagination,
		ProspectStatus: strings.TrimSpace(query.ProspectStatus),
		CompanyID:      strings.TrimSpace(query.CompanyID),
		IncludeWon:     query.IncludeWon,
		TrashedOnly:    query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospects", resp)
}

func (s *Server) GetProspectByID(c *gin.Context) {
	resp, err := s.prospectSvc.GetByID(c.Request.Context(), prospectdomain.GetProspectRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect", resp)
}

type updateProspectRequest struct {
	Source *string `json:"source"`
	Notes  *string `json:"notes"`
}

func (s *Server) UpdateProspect(c *gin.Context) {
	var req updateProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.prospectSvc.Update(c.Request.Context(), prospectdomain.UpdateProspectRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Source: req.Source,
		Notes:  req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect updated", resp)
}

type updateProspectStatusRequest struct {
	ProspectStatus string `json:"prospect_status"`
}

func (s *Server) UpdateProspectStatus(c *gin.Context) {
	var req updateProspectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.prospectSvc.UpdateProspectStatus(c.Request.Context(), prospectdomain.UpdateProspectStatusRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		ProspectStatus: prospectdomain.ProspectStatus(strings.TrimSpace(req.ProspectStatus)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect status updated", resp)
}

func (s *Server) AddProspectFollowUp(c *gin.Context) {
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

	resp, err := s.prospectSvc.AddFollowUp(c.Request.Context(), prospectdomain.AddFollowUpRequest{
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

func (s *Server) ListProspectFollowUps(c *gin.Context) {
	resp, err := s.prospectSvc.ListFollowUps(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "follow-ups", resp)
}

func (s *Server) ConvertProspect(c *gin.Context) {
	resp, err := s.prospectSvc.Convert(c.Request.Context(), prospectdomain.ConvertProspectRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "prospect converted", resp)
}

func (s *Server) TrashProspect(c *gin.Context) {
	if err := s.prospectSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect trashed", nil)
}

func (s *Server) RestoreProspect(c *gin.Context) {
	if err := s.prospectSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect restored", nil)
}

func (s *Server) PurgeProspect(c *gin.Context) {
	force, _ := strconv.ParseBool(strings.TrimSpace(c.Query("force")))

	err := s.prospectSvc.Purge(c.Request.Context(), prospectdomain.PurgeProspectRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Force: force,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "prospect purged", nil)
}

func isProspectValidationError(err error) bool {
	switch err {
	case prospectdomain.ErrInvalidOrganization,
		prospectdomain.ErrInvalidID,
		prospectdomain.ErrInvalidCompany,
		prospectdomain.ErrInvalidStatus,
		prospectdomain.ErrInvalidFollowUp:
		return true
	default:
		return false
	}
}
