package service

import (
	"context"
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
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/refid"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db"
	"github.com/leadstack/crm/pkg/db/pagination"
)

const refIDAttempts = 3

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	LeadRepo    leaddomain.Repository
	CompanyRepo companydomain.Repository
	ContactRepo contactdomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	leadRepo    leaddomain.Repository
	companyRepo companydomain.Repository
	contactRepo contactdomain.Repository
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("prospect.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		leadRepo:    p.LeadRepo,
		companyRepo: p.CompanyRepo,
		contactRepo: p.ContactRepo,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProspectRequest) (domain.Prospect, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Prospect{}, err
	}

	prospectStatus := domain.ProspectStatus(strings.TrimSpace(req.ProspectStatus))
	if prospectStatus == "" {
		prospectStatus = domain.ProspectInterested
	}
	if !prospectStatus.Valid() {
		return domain.Prospect{}, domain.ErrInvalidStatus
	}

	company, contacts, err := s.resolveSnapshots(ctx, orgID, req.CompanyID, req.ContactIDs)
	if err != nil {
		return domain.Prospect{}, err
	}

	now := s.clock.Now()
	prospect := domain.Prospect{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		CompanyID:        company.ID,
		CompanySnapshot:  datatypes.NewJSONType(companydomain.SnapshotOf(company)),
		ContactSnapshots: datatypes.NewJSONSlice(contacts),
		ProspectStatus:   prospectStatus,
		Status:           domain.StatusOpen,
		IsActive:         true,
		Source:           strings.TrimSpace(req.Source),
		Notes:            strings.TrimSpace(req.Notes),
		Owned:            visibility.Stamp(actor),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	prospect.ReminderStatus = followup.ReminderNone

	var insertErr error
	for attempt := 0; attempt < refIDAttempts; attempt++ {
		prospect.RefID = refid.New(refid.PrefixProspect, now)
		insertErr = s.repo.Insert(ctx, s.db, &prospect)
		if insertErr == nil {
			return prospect, nil
		}
		if !db.IsDuplicateKeyErr(insertErr) {
			return domain.Prospect{}, insertErr
		}
	}
	return domain.Prospect{}, insertErr
}

func (s *Service) List(ctx context.Context, req domain.ListProspectRequest) (domain.ListProspectResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListProspectResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListProspectFilter{
		ProspectStatus: strings.TrimSpace(req.ProspectStatus),
		CompanyID:      strings.TrimSpace(req.CompanyID),
		IncludeWon:     req.IncludeWon,
		TrashedOnly:    req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListProspectResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(prospect *domain.Prospect) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        prospect.ID.String(),
			CreatedAt: prospect.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	prospects := make([]domain.Prospect, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		prospects = append(prospects, *item)
	}

	resp := domain.ListProspectResponse{Prospects: prospects}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProspectRequest) (domain.Prospect, error) {
	prospect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Prospect{}, err
	}
	if prospect.Trashed() {
		return domain.Prospect{}, domain.ErrNotFound
	}
	return *prospect, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProspectRequest) (domain.Prospect, error) {
	prospect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Prospect{}, err
	}
	if prospect.Trashed() {
		return domain.Prospect{}, domain.ErrNotFound
	}
	if prospect.Won() {
		return domain.Prospect{}, domain.ErrProspectWon
	}

	if req.Source != nil {
		prospect.Source = strings.TrimSpace(*req.Source)
	}
	if req.Notes != nil {
		prospect.Notes = strings.TrimSpace(*req.Notes)
	}
	prospect.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, prospect); err != nil {
		return domain.Prospect{}, err
	}
	return *prospect, nil
}

func (s *Service) UpdateProspectStatus(ctx context.Context, req domain.UpdateProspectStatusRequest) (domain.Prospect, error) {
	prospect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Prospect{}, err
	}
	if prospect.Trashed() {
		return domain.Prospect{}, domain.ErrNotFound
	}
	if prospect.Won() {
		return domain.Prospect{}, domain.ErrProspectWon
	}
	if !req.ProspectStatus.Valid() {
		return domain.Prospect{}, domain.ErrInvalidStatus
	}

	prospect.ProspectStatus = req.ProspectStatus
	prospect.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, prospect); err != nil {
		return domain.Prospect{}, err
	}
	return *prospect, nil
}

func (s *Service) AddFollowUp(ctx context.Context, req domain.AddFollowUpRequest) (domain.Prospect, error) {
	if !req.Type.Valid() || req.Date.IsZero() {
		return domain.Prospect{}, domain.ErrInvalidFollowUp
	}
	if req.NextFollowUpType != nil && !req.NextFollowUpType.Valid() {
		return domain.Prospect{}, domain.ErrInvalidFollowUp
	}

	prospect, actor, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Prospect{}, err
	}
	if prospect.Trashed() {
		return domain.Prospect{}, domain.ErrNotFound
	}
	if prospect.Won() {
		return domain.Prospect{}, domain.ErrProspectWon
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := followup.Entry{
			ID:              s.genID.Generate(),
			OrgID:           prospect.OrgID,
			EntityType:      followup.EntityProspect,
			EntityID:        prospect.ID,
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
		prospect.Apply(now, req.Type, req.Date, req.NextFollowUpAt, req.NextFollowUpType)
		prospect.UpdatedAt = now
		return s.repo.Update(ctx, tx, prospect)
	})
	if err != nil {
		return domain.Prospect{}, err
	}
	return *prospect, nil
}

func (s *Service) ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error) {
	prospect, _, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return followup.ListEntries(ctx, s.db, prospect.OrgID, followup.EntityProspect, prospect.ID)
}

// Convert closes the prospect as WON and creates the lead in one
// transaction. The snapshots are copied forward verbatim; the lead's owner
// is the acting user, not the prospect's creator.
func (s *Service) Convert(ctx context.Context, req domain.ConvertProspectRequest) (leaddomain.Lead, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return leaddomain.Lead{}, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return leaddomain.Lead{}, err
	}

	var lead leaddomain.Lead
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prospect, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if prospect == nil {
			return domain.ErrNotFound
		}
		if !prospect.CanAccess(actor) {
			return domain.ErrForbidden
		}
		if prospect.Trashed() {
			return domain.ErrNotFound
		}
		if prospect.Won() {
			return domain.ErrProspectWon
		}

		now := s.clock.Now()
		lead = leaddomain.Lead{
			ID:               s.genID.Generate(),
			OrgID:            orgID,
			ProspectID:       &prospect.ID,
			CompanyID:        prospect.CompanyID,
			CompanySnapshot:  prospect.CompanySnapshot,
			ContactSnapshots: prospect.ContactSnapshots,
			Stage:            leaddomain.StageNew,
			IsActive:         true,
			Source:           prospect.Source,
			Description:      prospect.Notes,
			Owned:            visibility.Stamp(actor),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		lead.ReminderStatus = followup.ReminderNone

		var insertErr error
		for attempt := 0; attempt < refIDAttempts; attempt++ {
			lead.RefID = refid.New(refid.PrefixLead, now)
			insertErr = s.leadRepo.Insert(ctx, tx, &lead)
			if insertErr == nil {
				break
			}
			if !db.IsDuplicateKeyErr(insertErr) {
				return insertErr
			}
		}
		if insertErr != nil {
			return insertErr
		}

		prospect.Status = domain.StatusWon
		prospect.IsActive = false
		prospect.ConvertedLeadID = &lead.ID
		prospect.UpdatedAt = now
		return s.repo.Update(ctx, tx, prospect)
	})
	if err != nil {
		return leaddomain.Lead{}, err
	}

	s.audit(ctx, "prospect.converted", lead.RefID, map[string]any{
		"prospect_id": id.String(),
		"lead_id":     lead.ID.String(),
	})
	return lead, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	prospect, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := prospect.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	prospect.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, prospect)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	prospect, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := prospect.MarkRestored(); err != nil {
		return err
	}
	prospect.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, prospect)
}

// Purge physically removes a prospect. Force is the explicit opt-in that
// skips the trashed-first check; it is still limited to super admins.
func (s *Service) Purge(ctx context.Context, req domain.PurgeProspectRequest) error {
	prospect, actor, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !prospect.Trashed() && !req.Force {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, prospect.OrgID, prospect.ID)
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

func (s *Service) accessible(ctx context.Context, tx *gorm.DB, rawID string) (*domain.Prospect, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	prospect, err := s.repo.FindByID(ctx, tx, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if prospect == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !prospect.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return prospect, actor, nil
}

func (s *Service) audit(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, action, "prospect", &targetID, metadata)
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
