package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
)

type feeApi struct {
	svc    *fee.Service
	ledger *fee.Ledger
}

func registerFeeAPI(g *echo.Group, svc *fee.Service, ledger *fee.Ledger) {
	api := feeApi{svc: svc, ledger: ledger}

	fg := g.Group("/fees")
	fg.POST("", api.create)
	fg.GET("", api.query)

	// detail endpoints
	dg := fg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/duplicate", api.duplicate)
	dg.GET("/instances", api.instances)
	dg.POST("/materialize", api.materialize)
}

// Handlers

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewDefinition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDefinition")
	}

	def, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, def)
}

func (api *feeApi) query(ctx echo.Context) error {
	filter := new(fee.DefinitionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fee.Definition{})
	}
	var ord Ordering
	ord.Bind(ctx)

	defs, err := api.svc.Filter(ctx.Request().Context(), *filter, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying fee definitions")
	}
	if defs == nil {
		defs = []fee.Definition{}
	}
	return ctx.JSON(http.StatusOK, defs)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	def, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *feeApi) update(ctx echo.Context) error {
	var data fee.UpdateDefinition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDefinition")
	}

	def, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *feeApi) destroy(ctx echo.Context) error {
	force, _ := strconv.ParseBool(ctx.QueryParam("force"))
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), force); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) duplicate(ctx echo.Context) error {
	var data DuplicateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DuplicateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	def, err := api.svc.DuplicateToClass(ctx.Request().Context(), ctx.Param("id"), data.TargetClassID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, def)
}

func (api *feeApi) instances(ctx echo.Context) error {
	instances, err := api.svc.Instances(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if instances == nil {
		instances = []fee.Instance{}
	}
	return ctx.JSON(http.StatusOK, instances)
}

// materialize expands the definition's schedule (idempotent upsert) and
// creates the missing ledger rows for it.
func (api *feeApi) materialize(ctx echo.Context) error {
	if _, err := api.svc.GenerateInstances(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	payments, err := api.ledger.Materialize(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []fee.Payment{}
	}
	return ctx.JSON(http.StatusCreated, payments)
}

type DuplicateRequest struct {
	TargetClassID string `json:"target_class_id" validate:"required"`
}

func (dr *DuplicateRequest) Validate() error {
	dr.TargetClassID = core.CleanString(dr.TargetClassID)
	return core.Validate.Struct(dr)
}
