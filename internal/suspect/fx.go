package suspect

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/suspect/repository"
	"github.com/leadstack/crm/internal/suspect/service"
)

var Module = fx.Module("suspect",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
