package middleware

import (
	"context"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/queries"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleScoped messages may only run while the caller acts in RequiredRole.
type RoleScoped interface {
	RequiredRole() string
}

// CallerScoped messages need an identified caller but no particular role.
type CallerScoped interface {
	RequiresCaller() bool
}

// RoleAuthorizer checks messages against the caller's active role.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	needsCaller := false
	if cs, ok := message.(CallerScoped); ok {
		needsCaller = cs.RequiresCaller()
	}
	rs, scoped := message.(RoleScoped)
	if !scoped && !needsCaller {
		return nil
	}
	p, err := identity.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	if scoped && !p.ActsAs(rs.RequiredRole()) {
		return identity.ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
