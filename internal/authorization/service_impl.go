package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/leadstack/crm/internal/audit/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
)

//go:embed model.conf
var modelText string

const (
	ObjectSuspect      = "suspect"
	ObjectProspect     = "prospect"
	ObjectLead         = "lead"
	ObjectOnboarding   = "onboarding"
	ObjectCompany      = "company"
	ObjectContact      = "contact"
	ObjectAsset        = "asset"
	ObjectVendor       = "vendor"
	ObjectEmployee     = "employee"
	ObjectNotification = "notification"
	ObjectReport       = "report"
	ObjectImport       = "import"
	ObjectTrash        = "trash"
	ObjectUser         = "user"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionTrash  = "trash"

	ActionSuspectConvert  = "suspect.convert"
	ActionProspectConvert = "prospect.convert"
	ActionLeadStage       = "lead.stage"
	ActionLeadClone       = "lead.clone"
	ActionFollowUp        = "follow_up"

	ActionTrashRestore = "trash.restore"
	ActionTrashPurge   = "trash.purge"

	ActionCompanyAssign = "company.assign"

	ActionImportRun = "import.run"

	ActionReportView   = "report.view"
	ActionReportExport = "report.export"

	ActionAuditLogView = "audit_log.view"

	ActionUserView       = "user.view"
	ActionUserCreate     = "user.create"
	ActionUserDeactivate = "user.deactivate"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	actor, ok := identity.FromContext(ctx)
	if !ok || !actor.Role.Valid() {
		return ErrInvalidActor
	}
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return ErrInvalidOrganization
	}

	subject := fmt.Sprintf("user:%s", actor.UserID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(string(actor.Role)))
	domain := fmt.Sprintf("org:%s", orgID.String())
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actor, orgID.String(), object, action)
		return ErrForbidden
	}
	if shouldAuditGrant(action) {
		s.auditGranted(ctx, actor, orgID.String(), object, action)
	}
	return nil
}

// ensureGrouping keeps the user-to-role link in sync with the role carried by
// the token, replacing a stale link when the user's role changed.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor identity.Identity, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.UserID.String()
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", nil, map[string]any{
		"object": object,
		"action": action,
		"actor":  actorID,
		"role":   string(actor.Role),
		"org_id": orgID,
	})
}

func (s *ServiceImpl) auditGranted(ctx context.Context, actor identity.Identity, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.UserID.String()
	_ = s.auditSvc.AuditLog(ctx, "authorization.granted", "authorization", nil, map[string]any{
		"object": object,
		"action": action,
		"actor":  actorID,
		"role":   string(actor.Role),
		"org_id": orgID,
	})
}

// Destructive grants are logged even when allowed.
func shouldAuditGrant(action string) bool {
	switch action {
	case ActionTrashPurge, ActionUserDeactivate:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	recordObjects := []string{
		ObjectSuspect,
		ObjectProspect,
		ObjectLead,
		ObjectCompany,
		ObjectContact,
		ObjectAsset,
		ObjectVendor,
		ObjectEmployee,
	}

	policies := [][]string{
		// Super admins bypass the matrix entirely.
		{"role:super_admin", "*", "*"},

		// Funnel flow shared by users and admins.
		{"role:user", ObjectSuspect, ActionSuspectConvert},
		{"role:user", ObjectProspect, ActionProspectConvert},
		{"role:user", ObjectLead, ActionLeadStage},
		{"role:user", ObjectLead, ActionLeadClone},
		{"role:user", ObjectSuspect, ActionFollowUp},
		{"role:user", ObjectProspect, ActionFollowUp},
		{"role:user", ObjectLead, ActionFollowUp},
		{"role:user", ObjectOnboarding, ActionView},
		{"role:user", ObjectOnboarding, ActionUpdate},
		{"role:user", ObjectNotification, ActionView},
		{"role:user", ObjectNotification, ActionUpdate},
		{"role:user", ObjectTrash, ActionView},
		{"role:user", ObjectReport, ActionReportView},
		{"role:user", ObjectImport, ActionImportRun},
		{"role:user", ObjectImport, ActionView},

		// Admin additions.
		{"role:admin", ObjectTrash, ActionTrashRestore},
		{"role:admin", ObjectCompany, ActionCompanyAssign},
		{"role:admin", ObjectReport, ActionReportExport},
		{"role:admin", ObjectUser, ActionUserView},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},
	}

	for _, object := range recordObjects {
		for _, action := range []string{ActionView, ActionCreate, ActionUpdate, ActionTrash} {
			policies = append(policies, []string{"role:user", object, action})
		}
	}

	// Admins carry the full user matrix plus the admin additions above.
	var adminPolicies [][]string
	for _, policy := range policies {
		if policy[0] != "role:user" {
			continue
		}
		adminPolicies = append(adminPolicies, []string{"role:admin", policy[1], policy[2]})
	}
	policies = append(policies, adminPolicies...)

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
