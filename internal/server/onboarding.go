package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

func (s *Server) ListOnboardings(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status         string `form:"status"`
		EngagementType string `form:"engagement_type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.onboardingSvc.List(c.Request.Context(), onboardingdomain.ListOnboardingRequest{
		Pagination:     query.Pagination,
		Status:         strings.TrimSpace(query.Status),
		EngagementType: strings.TrimSpace(query.EngagementType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "onboardings", resp)
}

func (s *Server) GetOnboardingByID(c *gin.Context) {
	resp, err := s.onboardingSvc.GetByID(c.Request.Context(), onboardingdomain.GetOnboardingRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "onboarding", resp)
}

func (s *Server) GetLeadOnboarding(c *gin.Context) {
	resp, err := s.onboardingSvc.GetByLead(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "onboarding", resp)
}

type updateOnboardingRequest struct {
	ResourceCount    *int     `json:"resource_count"`
	ResourceRoles    *string  `json:"resource_roles"`
	BillingRate      *float64 `json:"billing_rate"`
	ContractMonths   *int     `json:"contract_months"`
	ProjectName      *string  `json:"project_name"`
	ProjectScope     *string  `json:"project_scope"`
	EstimatedBudget  *float64 `json:"estimated_budget"`
	DeliveryTimeline *string  `json:"delivery_timeline"`
	StartDate        *string  `json:"start_date"`
	Notes            *string  `json:"notes"`
}

func (s *Server) UpdateOnboarding(c *gin.Context) {
	var req updateOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var startDate *time.Time
	if req.StartDate != nil {
		parsed, err := parseOptionalTime(*req.StartDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start date"))
			return
		}
		startDate = parsed
	}

	resp, err := s.onboardingSvc.Update(c.Request.Context(), onboardingdomain.UpdateOnboardingRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		ResourceCount:    req.ResourceCount,
		ResourceRoles:    req.ResourceRoles,
		BillingRate:      req.BillingRate,
		ContractMonths:   req.ContractMonths,
		ProjectName:      req.ProjectName,
		ProjectScope:     req.ProjectScope,
		EstimatedBudget:  req.EstimatedBudget,
		DeliveryTimeline: req.DeliveryTimeline,
		StartDate:        startDate,
		Notes:            req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "onboarding updated", resp)
}

func isOnboardingValidationError(err error) bool {
	switch err {
	case onboardingdomain.ErrInvalidOrganization,
		onboardingdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
