package lead

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/lead/repository"
	"github.com/leadstack/crm/internal/lead/service"
)

var Module = fx.Module("lead",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
