package audit

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/audit/repository"
	"github.com/leadstack/crm/internal/audit/service"
)

var Module = fx.Module("audit",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
