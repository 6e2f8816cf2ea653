package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/schedule"
)

type scheduleApi struct {
	callerApi
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{
		callerApi: callerApi{users: deps.UserSvc, accounts: deps.AccountSvc},
		svc:       deps.ScheduleSvc,
		validate:  deps.Validate,
	}

	sg := g.Group("/schedule", jwt)
	sg.GET("/days", api.queryDays)
	sg.POST("/days", api.createDay, managerMiddleware())
	sg.GET("/days/:id", api.retrieveDay)
	sg.POST("/days/:id/shifts", api.addShift, managerMiddleware())
	sg.DELETE("/shifts/:id", api.deleteShift, managerMiddleware())
	sg.GET("/me", api.myShifts)
}

func (api *scheduleApi) queryDays(ctx echo.Context) error {
	filter, err := bindDayFilter(ctx)
	if err != nil {
		return err
	}
	days, err := api.svc.QueryDays(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying days")
	}
	return ctx.JSON(http.StatusOK, days)
}

func (api *scheduleApi) createDay(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var data schedule.NewDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.CreateDay(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating day")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *scheduleApi) retrieveDay(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	d, err := api.svc.GetDay(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding day")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *scheduleApi) addShift(ctx echo.Context) error {
	dayID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var data schedule.NewShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewShift")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.AddShift(ctx.Request().Context(), caller, dayID, data)
	if err != nil {
		return errors.Wrap(err, "adding shift")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) deleteShift(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteShift(ctx.Request().Context(), caller, id); err != nil {
		return errors.Wrap(err, "deleting shift")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) myShifts(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	filter, err := bindDayFilter(ctx)
	if err != nil {
		return err
	}
	sched, err := api.svc.ProfileShifts(ctx.Request().Context(), caller, filter)
	if err != nil {
		return errors.Wrap(err, "listing shifts")
	}
	return ctx.JSON(http.StatusOK, sched)
}
