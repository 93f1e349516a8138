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
	"github.com/leadstack/crm/internal/orgcontext"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/refid"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/suspect/domain"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db"
	"github.com/leadstack/crm/pkg/db/pagination"
)

// refIDAttempts bounds retries on a ref ID uniqueness collision.
const refIDAttempts = 3

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	ProspectRepo prospectdomain.Repository
	CompanyRepo  companydomain.Repository
	ContactRepo  contactdomain.Repository
	AuditSvc     auditdomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	prospectRepo prospectdomain.Repository
	companyRepo  companydomain.Repository
	contactRepo  contactdomain.Repository
	auditSvc     auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("suspect.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		prospectRepo: p.ProspectRepo,
		companyRepo:  p.CompanyRepo,
		contactRepo:  p.ContactRepo,
		auditSvc:     p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSuspectRequest) (domain.Suspect, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Suspect{}, err
	}

	level := domain.InterestLevel(strings.TrimSpace(req.InterestLevel))
	if level != "" && !level.Valid() {
		return domain.Suspect{}, domain.ErrInvalidInterestLevel
	}

	company, contacts, err := s.resolveSnapshots(ctx, orgID, req.CompanyID, req.ContactIDs)
	if err != nil {
		return domain.Suspect{}, err
	}

	now := s.clock.Now()
	suspect := domain.Suspect{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		CompanyID:        company.ID,
		CompanySnapshot:  datatypes.NewJSONType(companydomain.SnapshotOf(company)),
		ContactSnapshots: datatypes.NewJSONSlice(contacts),
		Status:           domain.StatusSuspect,
		InterestLevel:    level,
		Source:           strings.TrimSpace(req.Source),
		Notes:            strings.TrimSpace(req.Notes),
		Owned:            visibility.Stamp(actor),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	suspect.ReminderStatus = followup.ReminderNone

	if err := s.insertWithRefID(ctx, s.db, &suspect); err != nil {
		return domain.Suspect{}, err
	}
	return suspect, nil
}

// insertWithRefID generates a human-readable ref ID and retries on the
// astronomically unlikely uniqueness collision.
func (s *Service) insertWithRefID(ctx context.Context, tx *gorm.DB, suspect *domain.Suspect) error {
	var err error
	for attempt := 0; attempt < refIDAttempts; attempt++ {
		suspect.RefID = refid.New(refid.PrefixSuspect, s.clock.Now())
		err = s.repo.Insert(ctx, tx, suspect)
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		s.log.Warn("suspect ref id collision, retrying", zap.String("ref_id", suspect.RefID))
	}
	return err
}

func (s *Service) List(ctx context.Context, req domain.ListSuspectRequest) (domain.ListSuspectResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListSuspectResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListSuspectFilter{
		Status:        strings.TrimSpace(req.Status),
		InterestLevel: strings.TrimSpace(req.InterestLevel),
		CompanyID:     strings.TrimSpace(req.CompanyID),
		TrashedOnly:   req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListSuspectResponse{}, err
	}

	pageInfo := buildPageInfo(items, pageSize)
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	suspects := make([]domain.Suspect, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		suspects = append(suspects, *item)
	}

	resp := domain.ListSuspectResponse{Suspects: suspects}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetSuspectRequest) (domain.Suspect, error) {
	suspect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Suspect{}, err
	}
	if suspect.Trashed() {
		return domain.Suspect{}, domain.ErrNotFound
	}
	return *suspect, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSuspectRequest) (domain.Suspect, error) {
	suspect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Suspect{}, err
	}
	if suspect.Trashed() {
		return domain.Suspect{}, domain.ErrNotFound
	}
	if suspect.IsConverted {
		return domain.Suspect{}, domain.ErrAlreadyConverted
	}

	if req.InterestLevel != nil {
		level := domain.InterestLevel(strings.TrimSpace(*req.InterestLevel))
		if !level.Valid() {
			return domain.Suspect{}, domain.ErrInvalidInterestLevel
		}
		suspect.InterestLevel = level
	}
	if req.Source != nil {
		suspect.Source = strings.TrimSpace(*req.Source)
	}
	if req.Notes != nil {
		suspect.Notes = strings.TrimSpace(*req.Notes)
	}
	suspect.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, suspect); err != nil {
		return domain.Suspect{}, err
	}
	return *suspect, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Suspect, error) {
	suspect, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Suspect{}, err
	}
	if suspect.Trashed() {
		return domain.Suspect{}, domain.ErrNotFound
	}
	if suspect.IsConverted {
		return domain.Suspect{}, domain.ErrAlreadyConverted
	}
	if !req.Status.Assignable() {
		return domain.Suspect{}, domain.ErrInvalidStatus
	}

	suspect.Status = req.Status
	suspect.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, suspect); err != nil {
		return domain.Suspect{}, err
	}
	return *suspect, nil
}

func (s *Service) AddFollowUp(ctx context.Context, req domain.AddFollowUpRequest) (domain.Suspect, error) {
	if !req.Type.Valid() || req.Date.IsZero() {
		return domain.Suspect{}, domain.ErrInvalidFollowUp
	}
	if req.NextFollowUpType != nil && !req.NextFollowUpType.Valid() {
		return domain.Suspect{}, domain.ErrInvalidFollowUp
	}

	suspect, actor, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Suspect{}, err
	}
	if suspect.Trashed() {
		return domain.Suspect{}, domain.ErrNotFound
	}
	if suspect.IsConverted {
		return domain.Suspect{}, domain.ErrAlreadyConverted
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := followup.Entry{
			ID:              s.genID.Generate(),
			OrgID:           suspect.OrgID,
			EntityType:      followup.EntitySuspect,
			EntityID:        suspect.ID,
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
		suspect.Apply(now, req.Type, req.Date, req.NextFollowUpAt, req.NextFollowUpType)
		suspect.UpdatedAt = now
		return s.repo.Update(ctx, tx, suspect)
	})
	if err != nil {
		return domain.Suspect{}, err
	}
	return *suspect, nil
}

func (s *Service) ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error) {
	suspect, _, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return followup.ListEntries(ctx, s.db, suspect.OrgID, followup.EntitySuspect, suspect.ID)
}

// Convert marks the suspect Converted and creates the prospect in one
// transaction, copying the frozen snapshots forward verbatim.
func (s *Service) Convert(ctx context.Context, req domain.ConvertSuspectRequest) (prospectdomain.Prospect, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return prospectdomain.Prospect{}, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return prospectdomain.Prospect{}, err
	}

	prospectStatus := prospectdomain.ProspectStatus(strings.TrimSpace(req.ProspectStatus))
	if prospectStatus == "" {
		prospectStatus = prospectdomain.ProspectInterested
	}
	if !prospectStatus.Valid() {
		return prospectdomain.Prospect{}, domain.ErrInvalidStatus
	}

	var prospect prospectdomain.Prospect
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suspect, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if suspect == nil {
			return domain.ErrNotFound
		}
		if !suspect.CanAccess(actor) {
			return domain.ErrForbidden
		}
		if suspect.Trashed() {
			return domain.ErrNotFound
		}
		if suspect.IsConverted {
			return domain.ErrAlreadyConverted
		}

		now := s.clock.Now()
		prospect = prospectdomain.Prospect{
			ID:               s.genID.Generate(),
			OrgID:            orgID,
			SuspectID:        &suspect.ID,
			CompanyID:        suspect.CompanyID,
			CompanySnapshot:  suspect.CompanySnapshot,
			ContactSnapshots: suspect.ContactSnapshots,
			ProspectStatus:   prospectStatus,
			Status:           prospectdomain.StatusOpen,
			IsActive:         true,
			Source:           suspect.Source,
			Notes:            suspect.Notes,
			Owned:            visibility.Stamp(actor),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		prospect.ReminderStatus = followup.ReminderNone

		var insertErr error
		for attempt := 0; attempt < refIDAttempts; attempt++ {
			prospect.RefID = refid.New(refid.PrefixProspect, now)
			insertErr = s.prospectRepo.Insert(ctx, tx, &prospect)
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

		suspect.Status = domain.StatusConverted
		suspect.IsConverted = true
		suspect.ConvertedProspectID = &prospect.ID
		suspect.UpdatedAt = now
		return s.repo.Update(ctx, tx, suspect)
	})
	if err != nil {
		return prospectdomain.Prospect{}, err
	}

	s.audit(ctx, "suspect.converted", prospect.RefID, map[string]any{
		"suspect_id":  id.String(),
		"prospect_id": prospect.ID.String(),
	})
	return prospect, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	suspect, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := suspect.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	suspect.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, suspect)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	suspect, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := suspect.MarkRestored(); err != nil {
		return err
	}
	suspect.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, suspect)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	suspect, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !suspect.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, suspect.OrgID, suspect.ID)
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

func (s *Service) accessible(ctx context.Context, tx *gorm.DB, rawID string) (*domain.Suspect, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	suspect, err := s.repo.FindByID(ctx, tx, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if suspect == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !suspect.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return suspect, actor, nil
}

func (s *Service) audit(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, action, "suspect", &targetID, metadata)
}

func buildPageInfo(items []*domain.Suspect, pageSize int) *pagination.PageInfo {
	return pagination.BuildCursorPageInfo(items, int32(pageSize), func(suspect *domain.Suspect) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        suspect.ID.String(),
			CreatedAt: suspect.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
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
