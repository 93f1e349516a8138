package auth

import (
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/auth/repository"
	"github.com/leadstack/crm/internal/auth/service"
)

var Module = fx.Module("auth",
	fx.Provide(
		repository.NewUserRepository,
		service.New,
	),
)
