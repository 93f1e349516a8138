package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/asset"
	assetdomain "github.com/leadstack/crm/internal/asset/domain"
	"github.com/leadstack/crm/internal/audit"
	auditdomain "github.com/leadstack/crm/internal/audit/domain"
	"github.com/leadstack/crm/internal/auth"
	authdomain "github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/authorization"
	"github.com/leadstack/crm/internal/company"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/config"
	"github.com/leadstack/crm/internal/contact"
	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/internal/employee"
	employeedomain "github.com/leadstack/crm/internal/employee/domain"
	"github.com/leadstack/crm/internal/importer"
	importerdomain "github.com/leadstack/crm/internal/importer/domain"
	"github.com/leadstack/crm/internal/lead"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/internal/notification"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/internal/observability"
	obslogger "github.com/leadstack/crm/internal/observability/logger"
	obsmetrics "github.com/leadstack/crm/internal/observability/metrics"
	obstracing "github.com/leadstack/crm/internal/observability/tracing"
	"github.com/leadstack/crm/internal/onboarding"
	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/internal/organization"
	orgdomain "github.com/leadstack/crm/internal/organization/domain"
	"github.com/leadstack/crm/internal/prospect"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/providers/email"
	providerredis "github.com/leadstack/crm/internal/providers/redis"
	"github.com/leadstack/crm/internal/providers/storage"
	"github.com/leadstack/crm/internal/ratelimit"
	"github.com/leadstack/crm/internal/report"
	reportdomain "github.com/leadstack/crm/internal/report/domain"
	"github.com/leadstack/crm/internal/suspect"
	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
	"github.com/leadstack/crm/internal/vendors"
	vendordomain "github.com/leadstack/crm/internal/vendors/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	organization.Module,
	company.Module,
	contact.Module,
	suspect.Module,
	prospect.Module,
	lead.Module,
	onboarding.Module,
	notification.Module,
	asset.Module,
	vendor.Module,
	employee.Module,
	importer.Module,
	report.Module,
	email.Module,
	storage.Module,
	providerredis.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	orgSvc          orgdomain.Service
	companySvc      companydomain.Service
	contactSvc      contactdomain.Service
	suspectSvc      suspectdomain.Service
	prospectSvc     prospectdomain.Service
	leadSvc         leaddomain.Service
	onboardingSvc   onboardingdomain.Service
	notificationSvc notificationdomain.Service
	assetSvc        assetdomain.Service
	vendorSvc       vendordomain.Service
	employeeSvc     employeedomain.Service
	importSvc       importerdomain.Service
	reportSvc       reportdomain.Service

	importLimiter *ratelimit.ImportLimiter
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	DB  *gorm.DB

	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrgSvc          orgdomain.Service
	CompanySvc      companydomain.Service
	ContactSvc      contactdomain.Service
	SuspectSvc      suspectdomain.Service
	ProspectSvc     prospectdomain.Service
	LeadSvc         leaddomain.Service
	OnboardingSvc   onboardingdomain.Service
	NotificationSvc notificationdomain.Service
	AssetSvc        assetdomain.Service
	VendorSvc       vendordomain.Service
	EmployeeSvc     employeedomain.Service
	ImportSvc       importerdomain.Service
	ReportSvc       reportdomain.Service

	ImportLimiter *ratelimit.ImportLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		orgSvc:          p.OrgSvc,
		companySvc:      p.CompanySvc,
		contactSvc:      p.ContactSvc,
		suspectSvc:      p.SuspectSvc,
		prospectSvc:     p.ProspectSvc,
		leadSvc:         p.LeadSvc,
		onboardingSvc:   p.OnboardingSvc,
		notificationSvc: p.NotificationSvc,
		assetSvc:        p.AssetSvc,
		vendorSvc:       p.VendorSvc,
		employeeSvc:     p.EmployeeSvc,
		importSvc:       p.ImportSvc,
		reportSvc:       p.ReportSvc,
		importLimiter:   p.ImportLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/login", s.Login)
	authGroup.POST("/logout", s.AuthRequired(), s.Logout)
	authGroup.GET("/me", s.AuthRequired(), s.Me)
	authGroup.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Users --------
	api.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	api.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserCreate), s.CreateUser)
	api.POST("/users/:id/deactivate", s.authorize(authorization.ObjectUser, authorization.ActionUserDeactivate), s.DeactivateUser)

	// -------- Organization --------
	api.GET("/organization", s.GetOrganization)

	// -------- Companies --------
	api.GET("/companies", s.authorize(authorization.ObjectCompany, authorization.ActionView), s.ListCompanies)
	api.POST("/companies", s.authorize(authorization.ObjectCompany, authorization.ActionCreate), s.CreateCompany)
	api.GET("/companies/:id", s.authorize(authorization.ObjectCompany, authorization.ActionView), s.GetCompanyByID)
	api.PATCH("/companies/:id", s.authorize(authorization.ObjectCompany, authorization.ActionUpdate), s.UpdateCompany)
	api.DELETE("/companies/:id", s.authorize(authorization.ObjectCompany, authorization.ActionTrash), s.TrashCompany)
	api.POST("/companies/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreCompany)
	api.DELETE("/companies/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeCompany)
	api.POST("/companies/:id/assignments", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyAssign), s.AssignCompany)
	api.DELETE("/companies/:id/assignments/:user_id", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyAssign), s.UnassignCompany)

	// -------- Contacts --------
	api.GET("/contacts", s.authorize(authorization.ObjectContact, authorization.ActionView), s.ListContacts)
	api.POST("/contacts", s.authorize(authorization.ObjectContact, authorization.ActionCreate), s.CreateContact)
	api.GET("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionView), s.GetContactByID)
	api.PATCH("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionUpdate), s.UpdateContact)
	api.DELETE("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionTrash), s.TrashContact)
	api.POST("/contacts/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreContact)
	api.DELETE("/contacts/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeContact)

	// -------- Suspects --------
	api.GET("/suspects", s.authorize(authorization.ObjectSuspect, authorization.ActionView), s.ListSuspects)
	api.POST("/suspects", s.authorize(authorization.ObjectSuspect, authorization.ActionCreate), s.CreateSuspect)
	api.GET("/suspects/:id", s.authorize(authorization.ObjectSuspect, authorization.ActionView), s.GetSuspectByID)
	api.PATCH("/suspects/:id", s.authorize(authorization.ObjectSuspect, authorization.ActionUpdate), s.UpdateSuspect)
	api.PATCH("/suspects/:id/status", s.authorize(authorization.ObjectSuspect, authorization.ActionUpdate), s.UpdateSuspectStatus)
	api.POST("/suspects/:id/follow-ups", s.authorize(authorization.ObjectSuspect, authorization.ActionFollowUp), s.AddSuspectFollowUp)
	api.GET("/suspects/:id/follow-ups", s.authorize(authorization.ObjectSuspect, authorization.ActionView), s.ListSuspectFollowUps)
	api.POST("/suspects/:id/convert", s.authorize(authorization.ObjectSuspect, authorization.ActionSuspectConvert), s.ConvertSuspect)
	api.DELETE("/suspects/:id", s.authorize(authorization.ObjectSuspect, authorization.ActionTrash), s.TrashSuspect)
	api.POST("/suspects/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreSuspect)
	api.DELETE("/suspects/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeSuspect)

	// -------- Prospects --------
	api.GET("/prospects", s.authorize(authorization.ObjectProspect, authorization.ActionView), s.ListProspects)
	api.POST("/prospects", s.authorize(authorization.ObjectProspect, authorization.ActionCreate), s.CreateProspect)
	api.GET("/prospects/:id", s.authorize(authorization.ObjectProspect, authorization.ActionView), s.GetProspectByID)
	api.PATCH("/prospects/:id", s.authorize(authorization.ObjectProspect, authorization.ActionUpdate), s.UpdateProspect)
	api.PATCH("/prospects/:id/status", s.authorize(authorization.ObjectProspect, authorization.ActionUpdate), s.UpdateProspectStatus)
	api.POST("/prospects/:id/follow-ups", s.authorize(authorization.ObjectProspect, authorization.ActionFollowUp), s.AddProspectFollowUp)
	api.GET("/prospects/:id/follow-ups", s.authorize(authorization.ObjectProspect, authorization.ActionView), s.ListProspectFollowUps)
	api.POST("/prospects/:id/convert", s.authorize(authorization.ObjectProspect, authorization.ActionProspectConvert), s.ConvertProspect)
	api.DELETE("/prospects/:id", s.authorize(authorization.ObjectProspect, authorization.ActionTrash), s.TrashProspect)
	api.POST("/prospects/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreProspect)
	api.DELETE("/prospects/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeProspect)

	// -------- Leads --------
	api.GET("/leads", s.authorize(authorization.ObjectLead, authorization.ActionView), s.ListLeads)
	api.POST("/leads", s.authorize(authorization.ObjectLead, authorization.ActionCreate), s.CreateLead)
	api.GET("/leads/:id", s.authorize(authorization.ObjectLead, authorization.ActionView), s.GetLeadByID)
	api.PATCH("/leads/:id", s.authorize(authorization.ObjectLead, authorization.ActionUpdate), s.UpdateLead)
	api.PATCH("/leads/:id/stage", s.authorize(authorization.ObjectLead, authorization.ActionLeadStage), s.UpdateLeadStage)
	api.POST("/leads/:id/clone", s.authorize(authorization.ObjectLead, authorization.ActionLeadClone), s.CloneLead)
	api.POST("/leads/:id/follow-ups", s.authorize(authorization.ObjectLead, authorization.ActionFollowUp), s.AddLeadFollowUp)
	api.GET("/leads/:id/follow-ups", s.authorize(authorization.ObjectLead, authorization.ActionView), s.ListLeadFollowUps)
	api.GET("/leads/:id/onboarding", s.authorize(authorization.ObjectOnboarding, authorization.ActionView), s.GetLeadOnboarding)
	api.DELETE("/leads/:id", s.authorize(authorization.ObjectLead, authorization.ActionTrash), s.TrashLead)
	api.POST("/leads/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreLead)
	api.DELETE("/leads/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeLead)

	// -------- Onboardings --------
	api.GET("/onboardings", s.authorize(authorization.ObjectOnboarding, authorization.ActionView), s.ListOnboardings)
	api.GET("/onboardings/:id", s.authorize(authorization.ObjectOnboarding, authorization.ActionView), s.GetOnboardingByID)
	api.PATCH("/onboardings/:id", s.authorize(authorization.ObjectOnboarding, authorization.ActionUpdate), s.UpdateOnboarding)

	// -------- Notifications --------
	api.GET("/notifications", s.authorize(authorization.ObjectNotification, authorization.ActionView), s.ListNotifications)
	api.GET("/notifications/unread-count", s.authorize(authorization.ObjectNotification, authorization.ActionView), s.UnreadNotificationCount)
	api.POST("/notifications/:id/read", s.authorize(authorization.ObjectNotification, authorization.ActionUpdate), s.MarkNotificationRead)
	api.POST("/notifications/read-all", s.authorize(authorization.ObjectNotification, authorization.ActionUpdate), s.MarkAllNotificationsRead)

	// -------- Assets --------
	api.GET("/assets", s.authorize(authorization.ObjectAsset, authorization.ActionView), s.ListAssets)
	api.POST("/assets", s.authorize(authorization.ObjectAsset, authorization.ActionCreate), s.CreateAsset)
	api.GET("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionView), s.GetAssetByID)
	api.PATCH("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionUpdate), s.UpdateAsset)
	api.POST("/assets/:id/assign", s.authorize(authorization.ObjectAsset, authorization.ActionUpdate), s.AssignAsset)
	api.POST("/assets/:id/unassign", s.authorize(authorization.ObjectAsset, authorization.ActionUpdate), s.UnassignAsset)
	api.DELETE("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionTrash), s.TrashAsset)
	api.POST("/assets/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreAsset)
	api.DELETE("/assets/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeAsset)

	// -------- Vendors --------
	api.GET("/vendors", s.authorize(authorization.ObjectVendor, authorization.ActionView), s.ListVendors)
	api.POST("/vendors", s.authorize(authorization.ObjectVendor, authorization.ActionCreate), s.CreateVendor)
	api.GET("/vendors/:id", s.authorize(authorization.ObjectVendor, authorization.ActionView), s.GetVendorByID)
	api.PATCH("/vendors/:id", s.authorize(authorization.ObjectVendor, authorization.ActionUpdate), s.UpdateVendor)
	api.DELETE("/vendors/:id", s.authorize(authorization.ObjectVendor, authorization.ActionTrash), s.TrashVendor)
	api.POST("/vendors/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreVendor)
	api.DELETE("/vendors/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeVendor)

	// -------- Employees --------
	api.GET("/employees", s.authorize(authorization.ObjectEmployee, authorization.ActionView), s.ListEmployees)
	api.POST("/employees", s.authorize(authorization.ObjectEmployee, authorization.ActionCreate), s.CreateEmployee)
	api.GET("/employees/:id", s.authorize(authorization.ObjectEmployee, authorization.ActionView), s.GetEmployeeByID)
	api.PATCH("/employees/:id", s.authorize(authorization.ObjectEmployee, authorization.ActionUpdate), s.UpdateEmployee)
	api.POST("/employees/:id/documents", s.authorize(authorization.ObjectEmployee, authorization.ActionUpdate), s.AddEmployeeDocument)
	api.GET("/employees/:id/documents", s.authorize(authorization.ObjectEmployee, authorization.ActionView), s.ListEmployeeDocuments)
	api.DELETE("/employees/:id/documents/:document_id", s.authorize(authorization.ObjectEmployee, authorization.ActionUpdate), s.RemoveEmployeeDocument)
	api.DELETE("/employees/:id", s.authorize(authorization.ObjectEmployee, authorization.ActionTrash), s.TrashEmployee)
	api.POST("/employees/:id/restore", s.authorize(authorization.ObjectTrash, authorization.ActionTrashRestore), s.RestoreEmployee)
	api.DELETE("/employees/:id/purge", s.authorize(authorization.ObjectTrash, authorization.ActionTrashPurge), s.PurgeEmployee)

	// -------- Imports --------
	api.POST("/imports/suspects", s.authorize(authorization.ObjectImport, authorization.ActionImportRun), s.ImportRateLimit(), s.ImportSuspects)
	api.GET("/imports", s.authorize(authorization.ObjectImport, authorization.ActionView), s.ListImportJobs)
	api.GET("/imports/:id", s.authorize(authorization.ObjectImport, authorization.ActionView), s.GetImportJob)

	// -------- Reports --------
	api.GET("/reports/funnel", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetFunnelReport)
	api.GET("/reports/funnel.pdf", s.authorize(authorization.ObjectReport, authorization.ActionReportExport), s.ExportFunnelReport)

	// -------- Audit logs --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
