package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
)

type schoolApi struct {
	svc    *school.Service
	ledger *fee.Ledger
}

func registerSchoolAPI(g *echo.Group, svc *school.Service, ledger *fee.Ledger) {
	api := schoolApi{svc: svc, ledger: ledger}

	cg := g.Group("/classes")
	cg.POST("", api.classCreate)
	cg.GET("", api.classQuery)
	cg.GET("/:id/students", api.classRoster)
	cg.GET("/:id/standing", api.classStanding)

	sg := g.Group("/students")
	sg.POST("", api.studentEnroll)
	sg.GET("/:id/standing", api.studentStanding)
}

// Handlers

func (api *schoolApi) classCreate(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *schoolApi) classQuery(ctx echo.Context) error {
	classes, err := api.svc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) classRoster(ctx echo.Context) error {
	students, err := api.svc.EnrolledStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) classStanding(ctx echo.Context) error {
	standing, err := api.ledger.AggregateByClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, standing)
}

func (api *schoolApi) studentEnroll(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	student, err := api.svc.EnrollStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *schoolApi) studentStanding(ctx echo.Context) error {
	standing, err := api.ledger.AggregateByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, standing)
}
