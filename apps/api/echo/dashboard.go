package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/training"
)

type dashboardApi struct {
	callerApi
	svc training.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		callerApi: callerApi{users: deps.UserSvc, accounts: deps.AccountSvc},
		svc:       deps.TrainingSvc,
	}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/exams", api.availableExams)
	dg.GET("/progress", api.progress)
	dg.GET("/stats", api.stats, managerMiddleware())
}

func (api *dashboardApi) availableExams(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	avail, err := api.svc.AvailableExams(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "listing available exams")
	}
	return ctx.JSON(http.StatusOK, avail)
}

func (api *dashboardApi) progress(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	prog, err := api.svc.ProfileProgress(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	stats, err := api.svc.ExamStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing exam stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
