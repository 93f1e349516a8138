package authorization

import (
	"context"
	"errors"

	"go.uber.org/fx"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
)

// Service answers "may the caller identified by the request context perform
// this action on this object kind". Record-level visibility stays in the
// domain services; this layer only gates capabilities per role.
type Service interface {
	Authorize(ctx context.Context, object string, action string) error
}

var Module = fx.Module("authorization",
	fx.Provide(
		NewEnforcer,
		NewService,
	),
)
