package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func (p *PDFProvider) GenerateFunnelReport(ctx context.Context, data FunnelReportData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Sales Funnel Report", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(4).Add(
			text.New(data.OrgName, props.Text{Size: 10, Align: align.Right}),
			text.New(data.GeneratedAt, props.Text{Size: 8, Top: 5, Align: align.Right}),
		),
	)

	addSection(m, "Suspects by status", data.Suspects)
	addSection(m, "Prospects by status", data.Prospects)
	addSection(m, "Leads by stage", data.Leads)

	m.AddRow(10,
		text.NewCol(12, "Conversion", props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
	)
	m.AddRow(8,
		text.NewCol(6, "Suspect to prospect", props.Text{Size: 9}),
		text.NewCol(6, data.SuspectToProspect, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(6, "Prospect to lead", props.Text{Size: 9}),
		text.NewCol(6, data.ProspectToLead, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(6, "Lead win rate", props.Text{Size: 9}),
		text.NewCol(6, data.LeadWinRate, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		text.NewCol(12, "Follow-up reminders", props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
	)
	m.AddRow(8,
		text.NewCol(6, "Due today", props.Text{Size: 9}),
		text.NewCol(6, fmt.Sprintf("%d", data.RemindersDueToday), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(6, "Overdue", props.Text{Size: 9}),
		text.NewCol(6, fmt.Sprintf("%d", data.RemindersOverdue), props.Text{Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func addSection(m core.Maroto, title string, rows []FunnelRow) {
	m.AddRow(10,
		text.NewCol(12, title, props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
	)
	for _, row := range rows {
		m.AddRow(8,
			text.NewCol(6, row.Label, props.Text{Size: 9}),
			text.NewCol(6, fmt.Sprintf("%d", row.Count), props.Text{Size: 9, Align: align.Right}),
		)
	}
}
