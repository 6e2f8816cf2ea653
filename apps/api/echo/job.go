package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/job"
)

type jobApi struct {
	callerApi
	svc      job.Service
	validate *validator.Validate
}

func registerJobAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := jobApi{
		callerApi: callerApi{users: deps.UserSvc, accounts: deps.AccountSvc},
		svc:       deps.JobSvc,
		validate:  deps.Validate,
	}

	jg := g.Group("/jobs", jwt)
	jg.GET("", api.query)
	jg.POST("", api.create, managerMiddleware())
	jg.GET("/:id", api.retrieve)
	jg.PUT("/:id", api.update, managerMiddleware())
	jg.DELETE("/:id", api.destroy, managerMiddleware())

	eg := g.Group("/employee-jobs", jwt)
	eg.GET("", api.queryEmployeeJobs)
	eg.POST("", api.assign, managerMiddleware())
	eg.DELETE("/:id", api.unassign, managerMiddleware())

	g.PUT("/profiles/:id/primary-job", api.setPrimary, jwt)
}

func (api *jobApi) query(ctx echo.Context) error {
	jobs, err := api.svc.QueryJobs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying jobs")
	}
	return ctx.JSON(http.StatusOK, jobs)
}

func (api *jobApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	j, err := api.svc.GetJob(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding job")
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *jobApi) bindJob(ctx echo.Context) (job.NewJob, error) {
	var data job.NewJob
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewJob")
	}
	return data, data.Validate(api.validate)
}

func (api *jobApi) create(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindJob(ctx)
	if err != nil {
		return err
	}
	j, err := api.svc.CreateJob(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating job")
	}
	return ctx.JSON(http.StatusCreated, j)
}

func (api *jobApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindJob(ctx)
	if err != nil {
		return err
	}
	j, err := api.svc.UpdateJob(ctx.Request().Context(), caller, id, data)
	if err != nil {
		return errors.Wrap(err, "updating job")
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *jobApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteJob(ctx.Request().Context(), caller, id); err != nil {
		return errors.Wrap(err, "deleting job")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryEmployeeJobs lists assignments; non-managers only see their own.
func (api *jobApi) queryEmployeeJobs(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var filter job.EmployeeJobFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to EmployeeJobFilter")
	}
	if !caller.IsManager {
		if filter.ProfileID, err = caller.RequireProfile(); err != nil {
			return err
		}
	}

	ejs, err := api.svc.QueryEmployeeJobs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying employee jobs")
	}
	return ctx.JSON(http.StatusOK, ejs)
}

func (api *jobApi) assign(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var data job.NewEmployeeJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEmployeeJob")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ej, err := api.svc.Assign(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "assigning job")
	}
	return ctx.JSON(http.StatusCreated, ej)
}

func (api *jobApi) unassign(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unassign(ctx.Request().Context(), caller, id); err != nil {
		return errors.Wrap(err, "unassigning job")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type PrimaryJobRequest struct {
	EmployeeJobID int64 `json:"employee_job_id"` // 0 clears
}

func (api *jobApi) setPrimary(ctx echo.Context) error {
	profID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var data PrimaryJobRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PrimaryJobRequest")
	}

	rctx := ctx.Request().Context()
	if err := api.svc.SetPrimary(rctx, caller, profID, data.EmployeeJobID); err != nil {
		return errors.Wrap(err, "setting primary job")
	}
	ejs, err := api.svc.QueryEmployeeJobs(rctx, job.EmployeeJobFilter{ProfileID: profID})
	if err != nil {
		return errors.Wrap(err, "querying employee jobs")
	}
	return ctx.JSON(http.StatusOK, ejs)
}
