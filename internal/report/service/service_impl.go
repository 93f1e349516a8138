package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/identity"
	orgdomain "github.com/leadstack/crm/internal/organization/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/providers/pdf"
	"github.com/leadstack/crm/internal/report/domain"
)

const cacheTTL = 60 * time.Second

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Repo   domain.Repository
	OrgSvc orgdomain.Service
	PDF    pdf.Provider
	Redis  *redis.Client `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	repo   domain.Repository
	orgSvc orgdomain.Service
	pdf    pdf.Provider
	redis  *redis.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("report.service"),
		clock:  p.Clock,
		repo:   p.Repo,
		orgSvc: p.OrgSvc,
		pdf:    p.PDF,
		redis:  p.Redis,
	}
}

func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	// Visibility differs per caller, so the cache key includes the user.
	key := fmt.Sprintf("report:funnel:%s:%s", orgID, actor.UserID)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	summary, err := s.build(ctx, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}

	s.toCache(ctx, key, summary)
	return summary, nil
}

func (s *Service) ExportPDF(ctx context.Context) (io.Reader, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}

	orgName := ""
	if org, err := s.orgSvc.Get(ctx); err == nil && org != nil {
		orgName = org.Name
	}

	return s.pdf.GenerateFunnelReport(ctx, pdf.FunnelReportData{
		OrgName:           orgName,
		GeneratedAt:       summary.GeneratedAt.UTC().Format(time.RFC3339),
		Suspects:          toRows(summary.SuspectsByStatus),
		Prospects:         toRows(summary.ProspectsByStatus),
		Leads:             toRows(summary.LeadsByStage),
		SuspectToProspect: formatRate(summary.Conversion.SuspectToProspect),
		ProspectToLead:    formatRate(summary.Conversion.ProspectToLead),
		LeadWinRate:       formatRate(summary.Conversion.LeadWinRate),
		RemindersDueToday: summary.Reminders.DueToday,
		RemindersOverdue:  summary.Reminders.Overdue,
	})
}

func (s *Service) build(ctx context.Context, orgID snowflake.ID, actor identity.Identity) (domain.Summary, error) {
	suspects, err := s.repo.CountSuspectsByStatus(ctx, s.db, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}
	prospects, err := s.repo.CountProspectsByStatus(ctx, s.db, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}
	leads, err := s.repo.CountLeadsByStage(ctx, s.db, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}
	converted, err := s.repo.CountConvertedSuspects(ctx, s.db, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}
	reminders, err := s.repo.CountReminders(ctx, s.db, orgID, actor)
	if err != nil {
		return domain.Summary{}, err
	}

	totalSuspects := sum(suspects)
	totalProspects := sum(prospects)
	wonProspects := prospects["WON"]
	wonLeads := leads["Won"]
	lostLeads := leads["Lost"]

	return domain.Summary{
		GeneratedAt:       s.clock.Now(),
		SuspectsByStatus:  suspects,
		ProspectsByStatus: prospects,
		LeadsByStage:      leads,
		Conversion: domain.ConversionRates{
			SuspectToProspect: ratio(converted, totalSuspects),
			ProspectToLead:    ratio(wonProspects, totalProspects),
			LeadWinRate:       ratio(wonLeads, wonLeads+lostLeads),
		},
		Reminders: reminders,
	}, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (domain.Summary, bool) {
	if s.redis == nil {
		return domain.Summary{}, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("report cache read failed", zap.Error(err))
		}
		return domain.Summary{}, false
	}
	var summary domain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.Summary{}, false
	}
	return summary, true
}

func (s *Service) toCache(ctx context.Context, key string, summary domain.Summary) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.log.Warn("report cache write failed", zap.Error(err))
	}
}

func toRows(counts map[string]int64) []pdf.FunnelRow {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	rows := make([]pdf.FunnelRow, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, pdf.FunnelRow{Label: label, Count: counts[label]})
	}
	return rows
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func sum(counts map[string]int64) int64 {
	var total int64
	for _, count := range counts {
		total += count
	}
	return total
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
