package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/leadstack/crm/internal/audit/domain"
	"github.com/leadstack/crm/internal/clock"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/internal/followup"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/lead/domain"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/refid"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db"
	"github.com/leadstack/crm/pkg/db/pagination"
)

const refIDAttempts = 3

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           domain.Repository
	OnboardingRepo onboardingdomain.Repository
	CompanyRepo    companydomain.Repository
	ContactRepo    contactdomain.Repository
	Fanout         notificationdomain.Fanout   `optional:"true"`
	AuditSvc       auditdomain.Service         `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	onboardingRepo onboardingdomain.Repository
	companyRepo    companydomain.Repository
	contactRepo    contactdomain.Repository
	fanout         notificationdomain.Fanout
	auditSvc       auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("lead.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		onboardingRepo: p.OnboardingRepo,
		companyRepo:    p.CompanyRepo,
		contactRepo:    p.ContactRepo,
		fanout:         p.Fanout,
		auditSvc:       p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLeadRequest) (domain.Lead, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Lead{}, err
	}

	forecast := domain.ForecastCategory(strings.TrimSpace(req.ForecastCategory))
	if forecast == "" {
		forecast = domain.ForecastPipeline
	}
	if !forecast.Valid() {
		return domain.Lead{}, domain.ErrInvalidForecast
	}

	company, contacts, err := s.resolveSnapshots(ctx, orgID, req.CompanyID, req.ContactIDs)
	if err != nil {
		return domain.Lead{}, err
	}

	now := s.clock.Now()
	lead := domain.Lead{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		CompanyID:        company.ID,
		CompanySnapshot:  datatypes.NewJSONType(companydomain.SnapshotOf(company)),
		ContactSnapshots: datatypes.NewJSONSlice(contacts),
		Stage:            domain.StageNew,
		CurrentStatus:    strings.TrimSpace(req.CurrentStatus),
		ForecastCategory: forecast,
		IsActive:         true,
		EstimatedValue:   req.EstimatedValue,
		Source:           strings.TrimSpace(req.Source),
		Description:      strings.TrimSpace(req.Description),
		Owned:            visibility.Stamp(actor),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	lead.ReminderStatus = followup.ReminderNone

	var insertErr error
	for attempt := 0; attempt < refIDAttempts; attempt++ {
		lead.RefID = refid.New(refid.PrefixLead, now)
		insertErr = s.repo.Insert(ctx, s.db, &lead)
		if insertErr == nil {
			return lead, nil
		}
		if !db.IsDuplicateKeyErr(insertErr) {
			return domain.Lead{}, insertErr
		}
	}
	return domain.Lead{}, insertErr
}

func (s *Service) List(ctx context.Context, req domain.ListLeadRequest) (domain.ListLeadResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListLeadResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListLeadFilter{
		Stage:            strings.TrimSpace(req.Stage),
		ForecastCategory: strings.TrimSpace(req.ForecastCategory),
		CompanyID:        strings.TrimSpace(req.CompanyID),
		IncludeClosed:    req.IncludeClosed,
		TrashedOnly:      req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListLeadResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(lead *domain.Lead) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        lead.ID.String(),
			CreatedAt: lead.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	leads := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		leads = append(leads, *item)
	}

	resp := domain.ListLeadResponse{Leads: leads}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetLeadRequest) (domain.Lead, error) {
	lead, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Trashed() {
		return domain.Lead{}, domain.ErrNotFound
	}
	return *lead, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLeadRequest) (domain.Lead, error) {
	lead, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Trashed() {
		return domain.Lead{}, domain.ErrNotFound
	}
	if lead.Closed() {
		return domain.Lead{}, domain.ErrLeadClosed
	}

	if req.CurrentStatus != nil {
		lead.CurrentStatus = strings.TrimSpace(*req.CurrentStatus)
	}
	if req.ForecastCategory != nil {
		forecast := domain.ForecastCategory(strings.TrimSpace(*req.ForecastCategory))
		if !forecast.Valid() {
			return domain.Lead{}, domain.ErrInvalidForecast
		}
		lead.ForecastCategory = forecast
	}
	if req.EstimatedValue != nil {
		lead.EstimatedValue = req.EstimatedValue
	}
	if req.Source != nil {
		lead.Source = strings.TrimSpace(*req.Source)
	}
	if req.Description != nil {
		lead.Description = strings.TrimSpace(*req.Description)
	}
	if req.Comments != nil {
		lead.Comments = strings.TrimSpace(*req.Comments)
	}
	lead.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, lead); err != nil {
		return domain.Lead{}, err
	}
	return *lead, nil
}

// UpdateStage moves the lead along the pipeline. A Won transition also opens
// the lead's onboarding inside the same transaction; the notification fan-out
// happens after commit and never fails the transition.
func (s *Service) UpdateStage(ctx context.Context, req domain.UpdateStageRequest) (domain.WonResult, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.WonResult{}, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.WonResult{}, err
	}
	if !req.Stage.Valid() {
		return domain.WonResult{}, domain.ErrInvalidStage
	}

	engagement := onboardingdomain.EngagementType(strings.TrimSpace(req.EngagementType))
	if req.Stage == domain.StageWon && !engagement.Valid() {
		return domain.WonResult{}, domain.ErrInvalidEngagement
	}

	var (
		lead       domain.Lead
		onboarding *onboardingdomain.Onboarding
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !current.CanAccess(actor) {
			return domain.ErrForbidden
		}
		if current.Trashed() {
			return domain.ErrNotFound
		}
		if current.Closed() {
			return domain.ErrLeadClosed
		}
		if !domain.CanTransition(current.Stage, req.Stage) {
			return domain.ErrStageNotAllowed
		}

		now := s.clock.Now()
		current.Stage = req.Stage
		if req.Stage.Terminal() {
			current.IsActive = false
		}
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}

		if req.Stage == domain.StageWon {
			existing, err := s.onboardingRepo.FindByLeadID(ctx, tx, orgID, current.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				onboarding = existing
			} else {
				created := onboardingdomain.Onboarding{
					ID:             s.genID.Generate(),
					OrgID:          orgID,
					LeadID:         current.ID,
					EngagementType: engagement,
					Status:         onboardingdomain.StatusPending,
					Owned:          visibility.Stamp(actor),
					CreatedAt:      now,
					UpdatedAt:      now,
				}
				if err := s.onboardingRepo.Insert(ctx, tx, &created); err != nil {
					return err
				}
				onboarding = &created
			}
		}

		lead = *current
		return nil
	})
	if err != nil {
		return domain.WonResult{}, err
	}

	if req.Stage == domain.StageWon {
		s.audit(ctx, "lead.won", lead.RefID, map[string]any{
			"lead_id":         lead.ID.String(),
			"engagement_type": string(engagement),
		})
		if s.fanout != nil {
			s.fanout.Notify(ctx, notificationdomain.Event{
				Type:       notificationdomain.TypeLeadWon,
				Title:      "Lead won",
				Body:       fmt.Sprintf("Lead %s (%s) was marked as won.", lead.RefID, lead.CompanySnapshot.Data().Name),
				EntityType: "lead",
				EntityID:   lead.ID,
				CompanyID:  lead.CompanyID,
				CreatorID:  lead.CreatedByUserID,
			})
		}
	}

	return domain.WonResult{Lead: lead, Onboarding: onboarding}, nil
}

func (s *Service) AddFollowUp(ctx context.Context, req domain.AddFollowUpRequest) (domain.Lead, error) {
	if !req.Type.Valid() || req.Date.IsZero() {
		return domain.Lead{}, domain.ErrInvalidFollowUp
	}
	if req.NextFollowUpType != nil && !req.NextFollowUpType.Valid() {
		return domain.Lead{}, domain.ErrInvalidFollowUp
	}

	lead, actor, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Trashed() {
		return domain.Lead{}, domain.ErrNotFound
	}
	if lead.Closed() {
		return domain.Lead{}, domain.ErrLeadClosed
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := followup.Entry{
			ID:              s.genID.Generate(),
			OrgID:           lead.OrgID,
			EntityType:      followup.EntityLead,
			EntityID:        lead.ID,
			Date:            req.Date.UTC(),
			Type:            req.Type,
			Comment:         strings.TrimSpace(req.Comment),
			PerformedByID:   actor.UserID,
			PerformedByRole: actor.Role,
			CreatedAt:       now,
		}
		if err := followup.InsertEntry(ctx, tx, &entry); err != nil {
			return err
		}
		lead.Apply(now, req.Type, req.Date, req.NextFollowUpAt, req.NextFollowUpType)
		lead.UpdatedAt = now
		return s.repo.Update(ctx, tx, lead)
	})
	if err != nil {
		return domain.Lead{}, err
	}
	return *lead, nil
}

func (s *Service) ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error) {
	lead, _, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return followup.ListEntries(ctx, s.db, lead.OrgID, followup.EntityLead, lead.ID)
}

// Clone copies a lead's descriptive fields and snapshots into a fresh open
// lead owned by the caller. Stage, follow-up state and comments start over.
func (s *Service) Clone(ctx context.Context, req domain.CloneLeadRequest) (domain.Lead, error) {
	source, actor, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	if source.Trashed() {
		return domain.Lead{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	clone := domain.Lead{
		ID:               s.genID.Generate(),
		OrgID:            source.OrgID,
		CompanyID:        source.CompanyID,
		CompanySnapshot:  source.CompanySnapshot,
		ContactSnapshots: source.ContactSnapshots,
		Stage:            domain.StageNew,
		CurrentStatus:    source.CurrentStatus,
		ForecastCategory: source.ForecastCategory,
		IsActive:         true,
		EstimatedValue:   source.EstimatedValue,
		Source:           source.Source,
		Description:      source.Description,
		Owned:            visibility.Stamp(actor),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	clone.ReminderStatus = followup.ReminderNone

	var insertErr error
	for attempt := 0; attempt < refIDAttempts; attempt++ {
		clone.RefID = refid.New(refid.PrefixLead, now)
		insertErr = s.repo.Insert(ctx, s.db, &clone)
		if insertErr == nil {
			s.audit(ctx, "lead.cloned", clone.RefID, map[string]any{
				"source_lead_id": source.ID.String(),
				"clone_lead_id":  clone.ID.String(),
			})
			return clone, nil
		}
		if !db.IsDuplicateKeyErr(insertErr) {
			return domain.Lead{}, insertErr
		}
	}
	return domain.Lead{}, insertErr
}

func (s *Service) Trash(ctx context.Context, id string) error {
	lead, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := lead.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	lead.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, lead)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	lead, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := lead.MarkRestored(); err != nil {
		return err
	}
	lead.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, lead)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	lead, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !lead.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, lead.OrgID, lead.ID)
}

func (s *Service) resolveSnapshots(ctx context.Context, orgID snowflake.ID, rawCompanyID string, rawContactIDs []string) (*companydomain.Company, []contactdomain.Snapshot, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(rawCompanyID))
	if err != nil || companyID == 0 {
		return nil, nil, domain.ErrInvalidCompany
	}
	company, err := s.companyRepo.FindByID(ctx, s.db, orgID, companyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil || company.Trashed() {
		return nil, nil, domain.ErrInvalidCompany
	}

	var snapshots []contactdomain.Snapshot
	if len(rawContactIDs) == 0 {
		contacts, err := s.contactRepo.FindByCompany(ctx, s.db, orgID, companyID)
		if err != nil {
			return nil, nil, err
		}
		for i := range contacts {
			snapshots = append(snapshots, contactdomain.SnapshotOf(&contacts[i]))
		}
		return company, snapshots, nil
	}

	for _, raw := range rawContactIDs {
		contactID, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || contactID == 0 {
			return nil, nil, domain.ErrInvalidID
		}
		contact, err := s.contactRepo.FindByID(ctx, s.db, orgID, contactID)
		if err != nil {
			return nil, nil, err
		}
		if contact == nil || contact.Trashed() || contact.CompanyID != companyID {
			return nil, nil, domain.ErrInvalidID
		}
		snapshots = append(snapshots, contactdomain.SnapshotOf(contact))
	}
	return company, snapshots, nil
}

func (s *Service) accessible(ctx context.Context, tx *gorm.DB, rawID string) (*domain.Lead, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	lead, err := s.repo.FindByID(ctx, tx, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if lead == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !lead.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return lead, actor, nil
}

func (s *Service) audit(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, action, "lead", &targetID, metadata)
}

func callerScope(ctx context.Context) (snowflake.ID, identity.Identity, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, identity.Identity{}, domain.ErrInvalidOrganization
	}
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return 0, identity.Identity{}, domain.ErrForbidden
	}
	return orgID, actor, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
