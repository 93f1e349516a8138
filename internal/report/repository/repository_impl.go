package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/followup"
	"github.com/leadstack/crm/internal/identity"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/report/domain"
	"github.com/leadstack/crm/internal/softdelete"
	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
	"github.com/leadstack/crm/internal/visibility"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *repo) CountSuspectsByStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error) {
	return countGrouped(ctx, db, &suspectdomain.Suspect{}, "status", orgID, actor)
}

func (r *repo) CountProspectsByStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error) {
	return countGrouped(ctx, db, &prospectdomain.Prospect{}, "prospect_status", orgID, actor)
}

func (r *repo) CountLeadsByStage(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error) {
	return countGrouped(ctx, db, &leaddomain.Lead{}, "stage", orgID, actor)
}

func (r *repo) CountConvertedSuspects(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&suspectdomain.Suspect{}).
		Where("org_id = ? AND is_converted = ?", orgID, true).
		Scopes(visibility.Records(actor), softdelete.Visible).
		Count(&total).Error
	return total, err
}

func (r *repo) CountReminders(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (domain.ReminderCounts, error) {
	var counts domain.ReminderCounts
	for _, model := range []any{
		&suspectdomain.Suspect{},
		&prospectdomain.Prospect{},
		&leaddomain.Lead{},
	} {
		today, err := countByReminder(ctx, db, model, orgID, actor, followup.ReminderToday)
		if err != nil {
			return domain.ReminderCounts{}, err
		}
		overdue, err := countByReminder(ctx, db, model, orgID, actor, followup.ReminderOverdue)
		if err != nil {
			return domain.ReminderCounts{}, err
		}
		counts.DueToday += today
		counts.Overdue += overdue
	}
	return counts, nil
}

func countGrouped(ctx context.Context, db *gorm.DB, model any, column string, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error) {
	var rows []statusCount
	err := db.WithContext(ctx).
		Model(model).
		Select(column+" as status, count(*) as total").
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.Visible).
		Group(column).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func countByReminder(ctx context.Context, db *gorm.DB, model any, orgID snowflake.ID, actor identity.Identity, status followup.ReminderStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(model).
		Where("org_id = ? AND reminder_status = ?", orgID, status).
		Scopes(visibility.Records(actor), softdelete.Visible).
		Count(&total).Error
	return total, err
}
