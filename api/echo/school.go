package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/user"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools", jwt)
	sg.GET("", api.querySchools)
	sg.POST("", api.createSchool, requirePermission(user.PermManageSystem))
	sg.GET("/:id", api.retrieveSchool)
	sg.GET("/:id/classes", api.schoolClasses)
	sg.PUT("/:id", api.updateSchool, requirePermission(user.PermManageSystem))
	sg.DELETE("/:id", api.destroySchool, requirePermission(user.PermManageSystem), requireElevated())

	cg := g.Group("/classes", jwt)
	cg.GET("", api.queryClasses)
	cg.GET("/mine", api.myClasses)
	cg.POST("", api.createClass, requireRoles(user.RoleAdmin, user.RoleSuperAdmin))
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, requireRoles(user.RoleTeacher, user.RoleAdmin, user.RoleSuperAdmin))
	cg.DELETE("/:id", api.destroyClass, requireRoles(user.RoleAdmin, user.RoleSuperAdmin), requireElevated())
	cg.GET("/:id/students", api.classStudents)
	cg.POST("/:id/students", api.enroll, requireRoles(user.RoleTeacher, user.RoleAdmin, user.RoleSuperAdmin))
	cg.DELETE("/:id/students", api.removeStudent, requireRoles(user.RoleTeacher, user.RoleAdmin, user.RoleSuperAdmin))
}

type (
	SchoolListResponse struct {
		Success bool            `json:"success"`
		Schools []school.School `json:"schools"`
	}

	SchoolResponse struct {
		Success bool          `json:"success"`
		School  school.School `json:"school"`
	}

	ClassListResponse struct {
		Success bool           `json:"success"`
		Classes []school.Class `json:"classes"`
	}

	ClassResponse struct {
		Success bool         `json:"success"`
		Class   school.Class `json:"class"`
	}

	ClassStudentsResponse struct {
		Success  bool                  `json:"success"`
		Students []school.ClassStudent `json:"students"`
	}

	EnrollRequest struct {
		StudentEmail string `json:"student_email" validate:"required,email"`
	}
)

func (er *EnrollRequest) Validate() error {
	er.StudentEmail = core.CleanString(er.StudentEmail, true /* lower */)
	return core.Validate.Struct(er)
}

// Schools

func (api *schoolApi) querySchools(ctx echo.Context) error {
	schools, err := api.svc.QuerySchools(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, SchoolListResponse{Success: true, Schools: schools})
}

func (api *schoolApi) createSchool(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.svc.CreateSchool(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, SchoolResponse{Success: true, School: sch})
}

func (api *schoolApi) retrieveSchool(ctx echo.Context) error {
	sch, err := api.svc.GetSchool(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school by ID")
	}
	return ctx.JSON(http.StatusOK, SchoolResponse{Success: true, School: sch})
}

func (api *schoolApi) schoolClasses(ctx echo.Context) error {
	classes, err := api.svc.ClassesBySchool(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying school classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, ClassListResponse{Success: true, Classes: classes})
}

func (api *schoolApi) updateSchool(ctx echo.Context) error {
	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.svc.UpdateSchool(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, SchoolResponse{Success: true, School: sch})
}

func (api *schoolApi) destroySchool(ctx echo.Context) error {
	if err := api.svc.DeleteSchool(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting school")
	}
	return ctx.JSON(http.StatusOK, successMessage("school deleted"))
}

// Classes

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var classes []school.Class
	var err error
	if teacher := core.CleanString(ctx.QueryParam("teacher"), true); teacher != "" {
		classes, err = api.svc.ClassesByTeacher(rctx, teacher)
	} else {
		classes, err = api.svc.QueryClasses(rctx)
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, ClassListResponse{Success: true, Classes: classes})
}

// myClasses lists the caller's own classes: enrollments for students, owned
// classes for staff.
func (api *schoolApi) myClasses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rctx := ctx.Request().Context()
	var classes []school.Class
	if claims.Role == user.RoleStudent {
		classes, err = api.svc.StudentClasses(rctx, claims.Email)
	} else {
		classes, err = api.svc.ClassesByTeacher(rctx, claims.Email)
	}
	if err != nil {
		return errors.Wrap(err, "querying own classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, ClassListResponse{Success: true, Classes: classes})
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, ClassResponse{Success: true, Class: cls})
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, ClassResponse{Success: true, Class: cls})
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	if err := checkClassAccess(ctx, api.svc, ctx.Param("id")); err != nil {
		return err
	}

	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.UpdateClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, ClassResponse{Success: true, Class: cls})
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, successMessage("class deleted"))
}

// Enrollments

func (api *schoolApi) classStudents(ctx echo.Context) error {
	// the roster carries student numbers and contact emails; scope it the
	// same way as the mutating enrollment endpoints
	if err := checkClassAccess(ctx, api.svc, ctx.Param("id")); err != nil {
		return err
	}

	students, err := api.svc.ClassStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []school.ClassStudent{}
	}
	return ctx.JSON(http.StatusOK, ClassStudentsResponse{Success: true, Students: students})
}

func (api *schoolApi) enroll(ctx echo.Context) error {
	if err := checkClassAccess(ctx, api.svc, ctx.Param("id")); err != nil {
		return err
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Enroll(ctx.Request().Context(), data.StudentEmail, ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, successMessage("student enrolled"))
}

func (api *schoolApi) removeStudent(ctx echo.Context) error {
	if err := checkClassAccess(ctx, api.svc, ctx.Param("id")); err != nil {
		return err
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// removal only deactivates the enrollment; history stays queryable
	if err := api.svc.RemoveStudent(ctx.Request().Context(), data.StudentEmail, ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing student")
	}
	return ctx.JSON(http.StatusOK, successMessage("student removed"))
}
