package organization

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/organization/repository"
	"github.com/leadstack/crm/internal/organization/service"
)

var Module = fx.Module("organization",
	fx.Provide(
		repository.NewOrganizationRepository,
		service.New,
	),
)
