package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCompanyRequest) (domain.Company, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Company{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	company := domain.Company{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Slug:        slug.Make(name),
		Industry:    strings.TrimSpace(req.Industry),
		Website:     strings.TrimSpace(req.Website),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Country:     strings.TrimSpace(req.Country),
		Description: strings.TrimSpace(req.Description),
		Owned:       visibility.Stamp(actor),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &company); err != nil {
		return domain.Company{}, err
	}
	return company, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCompanyRequest) (domain.ListCompanyResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListCompanyFilter{
		Name:        strings.TrimSpace(req.Name),
		Industry:    strings.TrimSpace(req.Industry),
		TrashedOnly: req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(company *domain.Company) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        company.ID.String(),
			CreatedAt: company.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	companies := make([]domain.Company, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		companies = append(companies, *item)
	}

	resp := domain.ListCompanyResponse{Companies: companies}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCompanyRequest) (domain.Company, error) {
	company, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Company{}, err
	}
	if company.Trashed() {
		return domain.Company{}, domain.ErrNotFound
	}
	return *company, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCompanyRequest) (domain.Company, error) {
	company, _, err := s.accessible(ctx, s.db, req.ID)
	if err != nil {
		return domain.Company{}, err
	}
	if company.Trashed() {
		return domain.Company{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Company{}, domain.ErrInvalidName
		}
		company.Name = name
		company.Slug = slug.Make(name)
	}
	applyString(&company.Industry, req.Industry)
	applyString(&company.Website, req.Website)
	applyString(&company.Email, req.Email)
	applyString(&company.Phone, req.Phone)
	applyString(&company.Address, req.Address)
	applyString(&company.City, req.City)
	applyString(&company.Country, req.Country)
	applyString(&company.Description, req.Description)
	company.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, company); err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	company, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := company.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	company.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, company)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	company, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := company.MarkRestored(); err != nil {
		return err
	}
	company.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, company)
}

// Purge physically removes a trashed company. Never reachable for live rows.
func (s *Service) Purge(ctx context.Context, id string) error {
	company, actor, err := s.accessible(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !company.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, company.OrgID, company.ID)
}

func (s *Service) Assign(ctx context.Context, req domain.AssignRequest) error {
	company, actor, err := s.accessible(ctx, s.db, req.CompanyID)
	if err != nil {
		return err
	}
	if company.Trashed() {
		return domain.ErrNotFound
	}
	userID, err := parseID(req.UserID)
	if err != nil {
		return err
	}

	assignment := domain.Assignment{
		ID:        s.genID.Generate(),
		CompanyID: company.ID,
		UserID:    userID,
		Role:      identity.RoleUser,
		CreatedAt: s.clock.Now(),
	}
	if actor.Role.IsSuperAdmin() {
		assignment.Role = identity.RoleAdmin
	}
	if err := s.repo.InsertAssignment(ctx, s.db, &assignment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (s *Service) Unassign(ctx context.Context, req domain.AssignRequest) error {
	company, _, err := s.accessible(ctx, s.db, req.CompanyID)
	if err != nil {
		return err
	}
	userID, err := parseID(req.UserID)
	if err != nil {
		return err
	}
	return s.repo.DeleteAssignment(ctx, s.db, company.ID, userID)
}

// accessible loads the company and applies the direct-access rule: super
// admins always pass, others must own or be assigned to the company.
func (s *Service) accessible(ctx context.Context, tx *gorm.DB, rawID string) (*domain.Company, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	company, err := s.repo.FindByID(ctx, tx, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if company == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !company.CanAccess(actor) && !assigned(company, actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return company, actor, nil
}

func assigned(company *domain.Company, actor identity.Identity) bool {
	for _, assignment := range company.Assignments {
		if assignment.UserID == actor.UserID {
			return true
		}
	}
	return false
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

func applyString(dst *string, src *string) {
	if src == nil {
		return
	}
	*dst = strings.TrimSpace(*src)
}
