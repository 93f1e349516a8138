package pdf

import (
	"context"
	"io"
)

type FunnelRow struct {
	Label string
	Count int64
}

type FunnelReportData struct {
	OrgName     string
	GeneratedAt string

	Suspects  []FunnelRow
	Prospects []FunnelRow
	Leads     []FunnelRow

	SuspectToProspect string
	ProspectToLead    string
	LeadWinRate       string

	RemindersDueToday int64
	RemindersOverdue  int64
}

type Provider interface {
	GenerateFunnelReport(ctx context.Context, data FunnelReportData) (io.Reader, error)
}

func New() Provider {
	return &PDFProvider{}
}
