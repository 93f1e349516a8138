package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createLeadRequest struct {
	CompanyID        string   `json:"company_id"`
	ContactIDs       []string `json:"contact_ids"`
	CurrentStatus    string   `json:"current_status"`
	ForecastCategory string   `json:"forecast_category"`
	EstimatedValue   *float64 `json:"estimated_value"`
	Source           string   `json:"source"`
	Description      string   `json:"description"`
}

func (s *Server) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.Create(c.Request.Context(), leaddomain.CreateLeadRequest{
		CompanyID:        strings.TrimSpace(req.CompanyID),
		ContactIDs:       req.ContactIDs,
		CurrentStatus:    strings.TrimSpace(req.CurrentStatus),
		ForecastCategory: strings.TrimSpace(req.ForecastCategory),
		EstimatedValue:   req.EstimatedValue,
		Source:           strings.TrimSpace(req.Source),
		Description:      strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "lead created", resp)
}

func (s *Server) ListLeads(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Stage            string `form:"stage"`
		ForecastCategory string `form:"forecast_category"`
		CompanyID        string `form:"company_id"`
		IncludeClosed    bool   `form:"include_closed"`
		TrashedOnly      bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.List(c.Request.Context(), leaddomain.ListLeadRequest{
		Pagination:       query.Pagination,
		Stage:            strings.TrimSpace(query.Stage),
		ForecastCategory: strings.TrimSpace(query.ForecastCategory),
		CompanyID:        strings.TrimSpace(query.CompanyID),
		IncludeClosed:    query.IncludeClosed,
		TrashedOnly:      query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "leads", resp)
}

func (s *Server) GetLeadByID(c *gin.Context) {
	resp, err := s.leadSvc.GetByID(c.Request.Context(), leaddomain.GetLeadRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead", resp)
}

type updateLeadRequest struct {
	CurrentStatus    *string  `json:"current_status"`
	ForecastCategory *string  `json:"forecast_category"`
	EstimatedValue   *float64 `json:"estimated_value"`
	Source           *string  `json:"source"`
	Description      *string  `json:"description"`
	Comments         *string  `json:"comments"`
}

func (s *Server) UpdateLead(c *gin.Context) {
	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.Update(c.Request.Context(), leaddomain.UpdateLeadRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		CurrentStatus:    req.CurrentStatus,
		ForecastCategory: req.ForecastCategory,
		EstimatedValue:   req.EstimatedValue,
		Source:           req.Source,
		Description:      req.Description,
		Comments:         req.Comments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead updated", resp)
}

type updateLeadStageRequest struct {
	Stage          string `json:"stage"`
	EngagementType string `json:"engagement_type"`
}

func (s *Server) UpdateLeadStage(c *gin.Context) {
	var req updateLeadStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.UpdateStage(c.Request.Context(), leaddomain.UpdateStageRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		Stage:          leaddomain.Stage(strings.TrimSpace(req.Stage)),
		EngagementType: strings.TrimSpace(req.EngagementType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead stage updated", resp)
}

func (s *Server) AddLeadFollowUp(c *gin.Context) {
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

	resp, err := s.leadSvc.AddFollowUp(c.Request.Context(), leaddomain.AddFollowUpRequest{
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

func (s *Server) ListLeadFollowUps(c *gin.Context) {
	resp, err := s.leadSvc.ListFollowUps(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "follow-ups", resp)
}

func (s *Server) CloneLead(c *gin.Context) {
	resp, err := s.leadSvc.Clone(c.Request.Context(), leaddomain.CloneLeadRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "lead cloned", resp)
}

func (s *Server) TrashLead(c *gin.Context) {
	if err := s.leadSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead trashed", nil)
}

func (s *Server) RestoreLead(c *gin.Context) {
	if err := s.leadSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead restored", nil)
}

func (s *Server) PurgeLead(c *gin.Context) {
	if err := s.leadSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "lead purged", nil)
}

func isLeadValidationError(err error) bool {
	switch err {
	case leaddomain.ErrInvalidOrganization,
		leaddomain.ErrInvalidID,
		leaddomain.ErrInvalidCompany,
		leaddomain.ErrInvalidStage,
		leaddomain.ErrInvalidForecast,
		leaddomain.ErrInvalidFollowUp,
		leaddomain.ErrInvalidEngagement:
		return true
	default:
		return false
	}
}
