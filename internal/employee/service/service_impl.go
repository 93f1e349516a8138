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
	"github.com/leadstack/crm/internal/employee/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/providers/storage"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Storage storage.Provider
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	storage storage.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("employee.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		storage: p.Storage,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateEmployeeRequest) (domain.Employee, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Employee{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Employee{}, domain.ErrInvalidName
	}

	var userID *snowflake.ID
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.Employee{}, domain.ErrInvalidID
		}
		userID = &id
	}

	now := s.clock.Now()
	employee := domain.Employee{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		UserID:      userID,
		Name:        name,
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Designation: strings.TrimSpace(req.Designation),
		Department:  strings.TrimSpace(req.Department),
		JoiningDate: req.JoiningDate,
		Owned:       visibility.Stamp(actor),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &employee); err != nil {
		return domain.Employee{}, err
	}

	// Attachments are best-effort: a failed upload drops that document only,
	// the employee row above stays.
	for _, upload := range req.Documents {
		document, err := s.storeDocument(ctx, &employee, actor, upload)
		if err != nil {
			s.log.Warn("employee document upload failed",
				zap.String("employee_id", employee.ID.String()),
				zap.String("file_name", upload.FileName),
				zap.Error(err),
			)
			continue
		}
		employee.Documents = append(employee.Documents, *document)
	}
	return employee, nil
}

func (s *Service) List(ctx context.Context, req domain.ListEmployeeRequest) (domain.ListEmployeeResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListEmployeeResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListEmployeeFilter{
		Name:        strings.TrimSpace(req.Name),
		Department:  strings.TrimSpace(req.Department),
		TrashedOnly: req.TrashedOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListEmployeeResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(employee *domain.Employee) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        employee.ID.String(),
			CreatedAt: employee.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	employees := make([]domain.Employee, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		employees = append(employees, *item)
	}

	resp := domain.ListEmployeeResponse{Employees: employees}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetEmployeeRequest) (domain.Employee, error) {
	employee, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Employee{}, err
	}
	if employee.Trashed() {
		return domain.Employee{}, domain.ErrNotFound
	}
	return *employee, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateEmployeeRequest) (domain.Employee, error) {
	employee, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Employee{}, err
	}
	if employee.Trashed() {
		return domain.Employee{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Employee{}, domain.ErrInvalidName
		}
		employee.Name = name
	}
	applyString(&employee.Email, req.Email)
	applyString(&employee.Phone, req.Phone)
	applyString(&employee.Designation, req.Designation)
	applyString(&employee.Department, req.Department)
	if req.JoiningDate != nil {
		employee.JoiningDate = req.JoiningDate
	}
	employee.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, employee); err != nil {
		return domain.Employee{}, err
	}
	return *employee, nil
}

func (s *Service) AddDocument(ctx context.Context, req domain.AddDocumentRequest) (domain.Document, error) {
	employee, actor, err := s.accessible(ctx, req.EmployeeID)
	if err != nil {
		return domain.Document{}, err
	}
	if employee.Trashed() {
		return domain.Document{}, domain.ErrNotFound
	}
	document, err := s.storeDocument(ctx, employee, actor, req.Document)
	if err != nil {
		return domain.Document{}, err
	}
	return *document, nil
}

func (s *Service) ListDocuments(ctx context.Context, employeeID string) ([]domain.Document, error) {
	employee, _, err := s.accessible(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, s.db, employee.OrgID, employee.ID)
}

func (s *Service) RemoveDocument(ctx context.Context, employeeID, documentID string) error {
	employee, _, err := s.accessible(ctx, employeeID)
	if err != nil {
		return err
	}
	docID, err := snowflake.ParseString(strings.TrimSpace(documentID))
	if err != nil || docID == 0 {
		return domain.ErrInvalidID
	}
	document, err := s.repo.FindDocument(ctx, s.db, employee.OrgID, employee.ID, docID)
	if err != nil {
		return err
	}
	if document == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.DeleteDocument(ctx, s.db, employee.OrgID, document.ID); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, document.ExternalID); err != nil {
		s.log.Warn("stored file removal failed",
			zap.String("external_id", document.ExternalID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) Trash(ctx context.Context, id string) error {
	employee, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if err := employee.MarkTrashed(actor.UserID, s.clock.Now()); err != nil {
		return err
	}
	employee.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, employee)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	employee, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if err := employee.MarkRestored(); err != nil {
		return err
	}
	employee.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, employee)
}

func (s *Service) Purge(ctx context.Context, id string) error {
	employee, actor, err := s.accessible(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	if !employee.Trashed() {
		return softdelete.ErrNotTrashed
	}
	return s.repo.Delete(ctx, s.db, employee.OrgID, employee.ID)
}

func (s *Service) storeDocument(ctx context.Context, employee *domain.Employee, actor identity.Identity, upload domain.DocumentUpload) (*domain.Document, error) {
	if !upload.Kind.Valid() || strings.TrimSpace(upload.FileName) == "" || upload.Content == nil {
		return nil, domain.ErrInvalidDocument
	}
	attachment, err := s.storage.Upload(ctx, upload.FileName, upload.Content)
	if err != nil {
		return nil, domain.ErrUploadFailed
	}
	document := domain.Document{
		ID:           s.genID.Generate(),
		OrgID:        employee.OrgID,
		EmployeeID:   employee.ID,
		Kind:         upload.Kind,
		FileName:     strings.TrimSpace(upload.FileName),
		URL:          attachment.URL,
		ExternalID:   attachment.ExternalID,
		UploadedByID: actor.UserID,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.InsertDocument(ctx, s.db, &document); err != nil {
		// Orphaned file; removal is best-effort.
		_ = s.storage.Remove(ctx, attachment.ExternalID)
		return nil, err
	}
	return &document, nil
}

func (s *Service) accessible(ctx context.Context, rawID string) (*domain.Employee, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, identity.Identity{}, domain.ErrInvalidID
	}
	employee, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if employee == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !employee.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return employee, actor, nil
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
