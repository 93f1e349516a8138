package contact

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/contact/repository"
	"github.com/leadstack/crm/internal/contact/service"
)

var Module = fx.Module("contact",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
