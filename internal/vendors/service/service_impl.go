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

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/vendors/domain"
	"github.com/leadstack/crm/internal/visibility"
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
		log:   p.Log.Named("vendor.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVendorRequest) (domain.Vendor, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Vendor{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Vendor{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	vendor := domain.Vendor{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Services:     datatypes.NewJSONSlice(trimAll(req.Services)),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		Status:       domain.StatusActive,
		Owned:        visibility.Stamp(actor),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &vendor); err != nil {
		return domain.Vendor{}, err
	}
	return vendor, nil
}

func (s *Service) List(ctx context.Context, req domain.ListVendorRequest) (domain.ListVendorResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListVendorResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListVendorFilter{
		Name:        strings.TrimSpace(req.Name),
		Status:      strings.TrimSpace(req.Status),
		TrashedOnly: req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListVendorResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(vendor *domain.Vendor) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        vendor.ID.String(),
			CreatedAt: vendor.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	vendors := make([]domain.Vendor, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		vendors = append(vendors, *item)
	}

	resp := domain.ListVendorResponse{Vendors: vendors}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetVendorRequest) (domain.Vendor, error) {
	vendor, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Vendor{}, err
	}
	if vendor.Trashed() {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return *vendor, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVendorRequest) (domain.Vendor, error) {
	vendor, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Vendor{}, err
	}
	if vendor.Trashed() {
		return domain.Vendor{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Vendor{}, domain.ErrInvalidName
		}
		vendor.Name = name
	}
	if req.Services != nil {
		vendor.Services = datatypes.NewJSONSlice(trimAll(req.Services))
	}
	applyString(&vendor.ContactName, req.ContactName)
	applyString(&vendor.ContactEmail, req.ContactEmail)
	applyString(&vendor.ContactPhone, req.ContactPhone)
	applyString(&vendor.PaymentTerms, req.PaymentTerms)
	if req.Status != nil {
		status := domain.Status(strings.TrimSpace(*req.Status))
		if !status.Valid() {
			return domain.Vendor{}, domain.ErrInvalidStatus
		}
		vendor.Status = status
	}
	vendor.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, vendor); err != nil {
		return domain.Vendor{}, err
	}
	return *vendor, nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	vendor, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if err := vendor.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	vendor.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, vendor)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	vendor, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := vendor.MarkRestored(); err != nil {
		return err
	}
	vendor.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, vendor)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	vendor, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !vendor.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, vendor.OrgID, vendor.ID)
}

func (s *Service) accessible(ctx context.Context, rawID string) (*domain.Vendor, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, identity.Identity{}, domain.ErrInvalidID
	}
	vendor, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if vendor == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !vendor.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return vendor, actor, nil
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

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
