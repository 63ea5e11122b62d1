package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
)

type paymentApi struct {
	ledger *fee.Ledger
}

func registerPaymentAPI(g *echo.Group, ledger *fee.Ledger) {
	api := paymentApi{ledger: ledger}

	pg := g.Group("/payments")
	pg.GET("", api.query)

	// detail endpoints
	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/record", api.record)
	dg.POST("/postpone", api.postpone)
}

// Handlers

func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(fee.PaymentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fee.Payment{})
	}

	payments, err := api.ledger.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []fee.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	pay, err := api.ledger.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pay)
}

func (api *paymentApi) record(ctx echo.Context) error {
	var data fee.PaymentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentInput")
	}

	pay, err := api.ledger.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pay)
}

func (api *paymentApi) postpone(ctx echo.Context) error {
	var data PostponeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PostponeRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	pay, err := api.ledger.Postpone(ctx.Request().Context(), ctx.Param("id"), data.DueDate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pay)
}

type PostponeRequest struct {
	DueDate time.Time `json:"due_date" validate:"required"`
}

func (pr *PostponeRequest) Validate() error {
	return core.Validate.Struct(pr)
}
