package importer

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/importer/repository"
	"github.com/leadstack/crm/internal/importer/service"
)

var Module = fx.Module("importer",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
