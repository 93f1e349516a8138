package report

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/providers/pdf"
	"github.com/leadstack/crm/internal/report/repository"
	"github.com/leadstack/crm/internal/report/service"
)

var Module = fx.Module("report",
	fx.Provide(
		pdf.New,
		repository.Provide,
		service.New,
	),
)
