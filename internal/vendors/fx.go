package vendor

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/vendors/repository"
	"github.com/leadstack/crm/internal/vendors/service"
)

var Module = fx.Module("vendor",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
