package notification

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/notification/repository"
	"github.com/leadstack/crm/internal/notification/service"
)

var Module = fx.Module("notification",
	fx.Provide(
		repository.Provide,
		service.New,
		service.NewService,
		service.NewFanout,
	),
)
