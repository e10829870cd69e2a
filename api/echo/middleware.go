package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/user"
)

// requireRoles admits requests whose token holds any of the given roles.
// No roles means any authenticated user.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if len(roles) == 0 {
				return next(ctx)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func requirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if user.RoleHasPermission(claims.Role, perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// requireElevated gates destructive admin endpoints behind the admin
// password; the Elevated claim is only minted by /admin/elevate.
func requireElevated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Elevated {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// checkClassAccess re-validates class ownership on every mutating request:
// teachers only touch their own classes, admins touch any.
func checkClassAccess(ctx echo.Context, svc *school.Service, classID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin {
		return nil
	}
	if claims.Role != user.RoleTeacher {
		return errHttpForbidden
	}
	owns, err := svc.OwnsClass(ctx.Request().Context(), claims.Email, classID)
	if err != nil {
		return errors.Wrap(err, "checking class ownership")
	}
	if !owns {
		return errHttpForbidden
	}
	return nil
}
