package asset

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/asset/repository"
	"github.com/leadstack/crm/internal/asset/service"
)

var Module = fx.Module("asset",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
