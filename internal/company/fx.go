package company

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/company/repository"
	"github.com/leadstack/crm/internal/company/service"
)

var Module = fx.Module("company",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
