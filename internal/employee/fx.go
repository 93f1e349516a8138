package employee

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/employee/repository"
	"github.com/leadstack/crm/internal/employee/service"
)

var Module = fx.Module("employee",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
