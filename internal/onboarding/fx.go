package onboarding

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/onboarding/repository"
	"github.com/leadstack/crm/internal/onboarding/service"
)

var Module = fx.Module("onboarding",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
