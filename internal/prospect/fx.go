package prospect

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/prospect/repository"
	"github.com/leadstack/crm/internal/prospect/service"
)

var Module = fx.Module("prospect",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
