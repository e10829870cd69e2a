package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/user"
)

type userApi struct {
	svc *user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := userApi{svc: svc}

	ug := g.Group("/users", jwt)
	ug.GET("", api.query, requirePermission(user.PermManageUsers))
	ug.POST("", api.create, requirePermission(user.PermManageUsers))
	ug.GET("/search", api.search, requirePermission(user.PermViewStudentList))
	ug.GET("/roles", api.queryRoles, requirePermission(user.PermManageUsers))

	dg := ug.Group("/:id", ctxUserOrAdminMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, requirePermission(user.PermManageUsers))
	dg.PUT("/active", api.setActive, requirePermission(user.PermManageUsers))
	dg.DELETE("", api.destroy, requirePermission(user.PermManageUsers), requireElevated())
}

type (
	UserListResponse struct {
		Success bool        `json:"success"`
		Users   []user.User `json:"users"`
	}

	UserResponse struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
		Message string    `json:"message,omitempty"`
	}

	// UserDetailResponse carries the role profile alongside the user row.
	UserDetailResponse struct {
		Success bool                 `json:"success"`
		User    user.User            `json:"user"`
		Student *user.StudentProfile `json:"student_profile,omitempty"`
		Teacher *user.TeacherProfile `json:"teacher_profile,omitempty"`
	}

	ActiveRequest struct {
		Active *bool `json:"active" validate:"required"`
	}
)

func (ar *ActiveRequest) Validate() error {
	return core.Validate.Struct(ar)
}

func (api *userApi) query(ctx echo.Context) error {
	var page Pagination
	page.Bind(ctx)

	users, err := api.svc.QueryAll(ctx.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, UserListResponse{Success: true, Users: users})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		// the user row exists; report the incomplete profile instead of failing
		if core.IsPartial(err) {
			return ctx.JSON(http.StatusCreated, UserResponse{Success: true, User: usr, Message: err.Error()})
		}
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, UserResponse{Success: true, User: usr})
}

func (api *userApi) search(ctx echo.Context) error {
	query := core.CleanString(ctx.QueryParam("q"))
	if query == "" {
		return ctx.JSON(http.StatusOK, UserListResponse{Success: true, Users: []user.User{}})
	}

	users, err := api.svc.Search(ctx.Request().Context(), query)
	if err != nil {
		return errors.Wrap(err, "searching users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, UserListResponse{Success: true, Users: users})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.New("user object not found in echo.Context")
	}

	// a missing profile row is not an error; the user row stands alone
	resp := UserDetailResponse{Success: true, User: usr}
	rctx := ctx.Request().Context()
	switch {
	case usr.IsStudent():
		if profile, err := api.svc.StudentProfile(rctx, usr.ID); err == nil {
			resp.Student = &profile
		} else if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "finding student profile")
		}
	case usr.IsTeacher():
		if profile, err := api.svc.TeacherProfile(rctx, usr.ID); err == nil {
			resp.Teacher = &profile
		} else if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "finding teacher profile")
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.New("user object not found in echo.Context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if data.IsEmpty() {
		return ctx.JSON(http.StatusOK, UserResponse{Success: true, User: usr})
	}

	usr, err := api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, UserResponse{Success: true, User: usr})
}

func (api *userApi) setActive(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.New("user object not found in echo.Context")
	}

	var data ActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActiveRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.SetActive(ctx.Request().Context(), usr.ID, *data.Active)
	if err != nil {
		return errors.Wrap(err, "toggling user active state")
	}
	return ctx.JSON(http.StatusOK, UserResponse{Success: true, User: usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.New("user object not found in echo.Context")
	}

	// ctxUser cannot delete themselves; rejected before any gateway call
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if usr.ID == claims.Subject {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, successMessage("user deleted"))
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "roles": user.AllRoles})
}

// ctxUserOrAdminMiddleware loads the target user into the context; the detail
// endpoints are reachable by the user themselves or by an admin.
func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			if ctx.Param("id") == claims.Subject || claims.IsAdmin {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
