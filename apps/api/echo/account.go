package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/user"
)

// callerApi resolves the account.Caller of authenticated requests.
type callerApi struct {
	users    user.Service
	accounts account.Service
}

func (api callerApi) caller(ctx echo.Context) (account.Caller, error) {
	return getContextCaller(ctx, api.users, api.accounts)
}

type accountApi struct {
	callerApi
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{
		callerApi: callerApi{users: deps.UserSvc, accounts: deps.AccountSvc},
		validate:  deps.Validate,
	}

	pg := g.Group("/profiles", jwt)
	pg.GET("/me", api.me)
	pg.PUT("/me", api.updateMe)
	pg.GET("", api.findByEmail, managerMiddleware())
	pg.GET("/:id", api.retrieve, managerMiddleware())

	lg := g.Group("/locations", jwt)
	lg.GET("", api.queryLocations)
	lg.POST("", api.createLocation, managerMiddleware())
}

func (api *accountApi) me(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	profID, err := caller.RequireProfile()
	if err != nil {
		return err
	}
	prof, err := api.accounts.GetByID(ctx.Request().Context(), profID)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) updateMe(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}

	var data account.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.accounts.Update(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) findByEmail(ctx echo.Context) error {
	prof, err := api.accounts.GetByEmail(ctx.Request().Context(), ctx.QueryParam("email"))
	if err != nil {
		return errors.Wrap(err, "finding profile by email")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	prof, err := api.accounts.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) queryLocations(ctx echo.Context) error {
	locs, err := api.accounts.QueryLocations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying locations")
	}
	return ctx.JSON(http.StatusOK, locs)
}

func (api *accountApi) createLocation(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}

	var data account.NewLocation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLocation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	loc, err := api.accounts.CreateLocation(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating location")
	}
	return ctx.JSON(http.StatusCreated, loc)
}
