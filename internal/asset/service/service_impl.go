package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/asset/domain"
	"github.com/leadstack/crm/internal/clock"
	employeedomain "github.com/leadstack/crm/internal/employee/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/softdelete"
	vendordomain "github.com/leadstack/crm/internal/vendors/domain"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	EmployeeRepo employeedomain.Repository
	VendorRepo   vendordomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	employeeRepo employeedomain.Repository
	vendorRepo   vendordomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("asset.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		employeeRepo: p.EmployeeRepo,
		vendorRepo:   p.VendorRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAssetRequest) (domain.Asset, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Asset{}, err
	}

	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		return domain.Asset{}, domain.ErrInvalidTag
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Asset{}, domain.ErrInvalidName
	}

	var vendorID *snowflake.ID
	if raw := strings.TrimSpace(req.VendorID); raw != "" {
		id, err := s.resolveVendor(ctx, orgID, raw)
		if err != nil {
			return domain.Asset{}, err
		}
		vendorID = &id
	}

	now := s.clock.Now()
	asset := domain.Asset{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Tag:           tag,
		Name:          name,
		Category:      strings.TrimSpace(req.Category),
		SerialNumber:  strings.TrimSpace(req.SerialNumber),
		PurchaseDate:  req.PurchaseDate,
		PurchasePrice: req.PurchasePrice,
		VendorID:      vendorID,
		Owned:         visibility.Stamp(actor),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &asset); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Asset{}, domain.ErrTagExists
		}
		return domain.Asset{}, err
	}
	return asset, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAssetRequest) (domain.ListAssetResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListAssetResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListAssetFilter{
		Category:    strings.TrimSpace(req.Category),
		EmployeeID:  strings.TrimSpace(req.EmployeeID),
		TrashedOnly: req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListAssetResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(asset *domain.Asset) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        asset.ID.String(),
			CreatedAt: asset.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	assets := make([]domain.Asset, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		assets = append(assets, *item)
	}

	resp := domain.ListAssetResponse{Assets: assets}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAssetRequest) (domain.Asset, error) {
	asset, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Asset{}, err
	}
	if asset.Trashed() {
		return domain.Asset{}, domain.ErrNotFound
	}
	return *asset, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAssetRequest) (domain.Asset, error) {
	asset, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Asset{}, err
	}
	if asset.Trashed() {
		return domain.Asset{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Asset{}, domain.ErrInvalidName
		}
		asset.Name = name
	}
	applyString(&asset.Category, req.Category)
	applyString(&asset.SerialNumber, req.SerialNumber)
	if req.PurchaseDate != nil {
		asset.PurchaseDate = req.PurchaseDate
	}
	if req.PurchasePrice != nil {
		asset.PurchasePrice = req.PurchasePrice
	}
	if req.VendorID != nil {
		if raw := strings.TrimSpace(*req.VendorID); raw == "" {
			asset.VendorID = nil
		} else {
			id, err := s.resolveVendor(ctx, asset.OrgID, raw)
			if err != nil {
				return domain.Asset{}, err
			}
			asset.VendorID = &id
		}
	}
	asset.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, asset); err != nil {
		return domain.Asset{}, err
	}
	return *asset, nil
}

func (s *Service) Assign(ctx context.Context, req domain.AssignAssetRequest) (domain.Asset, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Asset{}, err
	}
	employeeID, err := snowflake.ParseString(strings.TrimSpace(req.EmployeeID))
	if err != nil || employeeID == 0 {
		return domain.Asset{}, domain.ErrInvalidEmployee
	}

	employee, err := s.employeeRepo.FindByID(ctx, s.db, orgID, employeeID)
	if err != nil {
		return domain.Asset{}, err
	}
	if employee == nil || employee.Trashed() {
		return domain.Asset{}, domain.ErrInvalidEmployee
	}

	var asset domain.Asset
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if current == nil || current.Trashed() {
			return domain.ErrNotFound
		}
		if !current.CanAccess(actor) {
			return domain.ErrForbidden
		}
		if current.Assigned() {
			return domain.ErrAlreadyAssigned
		}

		now := s.clock.Now()
		current.AssignedEmployeeID = &employeeID
		current.AssignedAt = &now
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		asset = *current
		return nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

func (s *Service) Unassign(ctx context.Context, id string) (domain.Asset, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	assetID, err := parseID(id)
	if err != nil {
		return domain.Asset{}, err
	}

	var asset domain.Asset
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, assetID)
		if err != nil {
			return err
		}
		if current == nil || current.Trashed() {
			return domain.ErrNotFound
		}
		if !current.CanAccess(actor) {
			return domain.ErrForbidden
		}
		if !current.Assigned() {
			return domain.ErrNotAssigned
		}

		current.AssignedEmployeeID = nil
		current.AssignedAt = nil
		current.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		asset = *current
		return nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// Trash clears the active assignment and marks the asset trashed in one
// transaction, so a trashed asset can never still be held by an employee.
func (s *Service) Trash(ctx context.Context, id string) error {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return err
	}
	assetID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, assetID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !current.CanAccess(actor) {
			return domain.ErrForbidden
		}

		now := s.clock.Now()
		current.AssignedEmployeeID = nil
		current.AssignedAt = nil
		if err := current.MarkTrashed(actor.UserID, now); err != nil {
			return err
		}
		current.UpdatedAt = now
		return s.repo.Update(ctx, tx, current)
	})
}

func (s *Service) Restore(ctx context.Context, id string) error {
	asset, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := asset.MarkRestored(); err != nil {
		return err
	}
	asset.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, asset)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	asset, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !asset.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, asset.OrgID, asset.ID)
}

func (s *Service) resolveVendor(ctx context.Context, orgID snowflake.ID, raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidVendor
	}
	vendor, err := s.vendorRepo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return 0, err
	}
	if vendor == nil || vendor.Trashed() {
		return 0, domain.ErrInvalidVendor
	}
	return id, nil
}

func (s *Service) accessible(ctx context.Context, rawID string) (*domain.Asset, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	asset, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if asset == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !asset.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return asset, actor, nil
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
