package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CompanyRepo companydomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	companyRepo companydomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contact.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		companyRepo: p.CompanyRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContactRequest) (domain.ContactPerson, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ContactPerson{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ContactPerson{}, domain.ErrInvalidName
	}
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return domain.ContactPerson{}, domain.ErrInvalidCompany
	}
	company, err := s.companyRepo.FindByID(ctx, s.db, orgID, companyID)
	if err != nil {
		return domain.ContactPerson{}, err
	}
	if company == nil || company.Trashed() {
		return domain.ContactPerson{}, domain.ErrInvalidCompany
	}

	now := s.clock.Now()
	contact := domain.ContactPerson{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		CompanyID: companyID,
		Name:      name,
		Title:     strings.TrimSpace(req.Title),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		IsPrimary: req.IsPrimary,
		Owned:     visibility.Stamp(actor),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &contact); err != nil {
		return domain.ContactPerson{}, err
	}
	return contact, nil
}

func (s *Service) List(ctx context.Context, req domain.ListContactRequest) (domain.ListContactResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListContactResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListContactFilter{
		CompanyID:   strings.TrimSpace(req.CompanyID),
		Name:        strings.TrimSpace(req.Name),
		TrashedOnly: req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListContactResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(contact *domain.ContactPerson) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contact.ID.String(),
			CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	contacts := make([]domain.ContactPerson, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}

	resp := domain.ListContactResponse{Contacts: contacts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetContactRequest) (domain.ContactPerson, error) {
	contact, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.ContactPerson{}, err
	}
	if contact.Trashed() {
		return domain.ContactPerson{}, domain.ErrNotFound
	}
	return *contact, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateContactRequest) (domain.ContactPerson, error) {
	contact, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.ContactPerson{}, err
	}
	if contact.Trashed() {
		return domain.ContactPerson{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.ContactPerson{}, domain.ErrInvalidName
		}
		contact.Name = name
	}
	applyString(&contact.Title, req.Title)
	applyString(&contact.Email, req.Email)
	applyString(&contact.Phone, req.Phone)
	if req.IsPrimary != nil {
		contact.IsPrimary = *req.IsPrimary
	}
	contact.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, contact); err != nil {
		return domain.ContactPerson{}, err
	}
	return *contact, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	contact, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if err := contact.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	contact.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, contact)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	contact, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := contact.MarkRestored(); err != nil {
		return err
	}
	contact.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, contact)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	contact, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !contact.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, contact.OrgID, contact.ID)
}

func (s *Service) accessible(ctx context.Context, rawID string) (*domain.ContactPerson, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, identity.Identity{}, domain.ErrInvalidID
	}
	contact, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if contact == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !contact.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return contact, actor, nil
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

func applyString(dst *string, src *string) {
	if src == nil {
		return
	}
	*dst = strings.TrimSpace(*src)
}
