package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core/school"
)

type schoolApi struct {
	svc school.ServiceInterface
}

func registerSchoolDirectoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.ServiceInterface) {
	api := schoolApi{svc: svc}

	sg := g.Group("/school-directory", jwt)

	bg := sg.Group("/beneficiaries")
	bg.GET("", api.queryBeneficiaries)
	bg.POST("/bulk", api.createBeneficiaries)
	bg.PATCH("/:id", api.patchBeneficiary)
	bg.DELETE("/:id", api.deleteBeneficiary)

	dg := sg.Group("/details")
	dg.GET("", api.queryDetails)
	dg.POST("", api.createDetails)
	dg.PATCH("/:id", api.patchDetails)
	dg.DELETE("/:id", api.deleteDetails)
}

// Handlers

func (api *schoolApi) queryBeneficiaries(ctx echo.Context) error {
	bens, err := api.svc.QueryBeneficiaries(
		ctx.Request().Context(), ctx.QueryParam("municipality"), ctx.QueryParam("schoolYear"))
	if err != nil {
		return errors.Wrap(err, "querying beneficiaries")
	}
	if bens == nil {
		bens = []school.Beneficiary{}
	}
	return ctx.JSON(http.StatusOK, bens)
}

func (api *schoolApi) createBeneficiaries(ctx echo.Context) error {
	var data school.BulkBeneficiaries
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkBeneficiaries")
	}

	bens, err := api.svc.CreateBeneficiaries(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating beneficiaries")
	}
	return ctx.JSON(http.StatusCreated, bens)
}

func (api *schoolApi) patchBeneficiary(ctx echo.Context) error {
	var data school.PatchBeneficiary
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PatchBeneficiary")
	}

	ben, err := api.svc.PatchBeneficiary(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "patching beneficiary")
	}
	return ctx.JSON(http.StatusOK, ben)
}

func (api *schoolApi) deleteBeneficiary(ctx echo.Context) error {
	if err := api.svc.DeleteBeneficiary(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting beneficiary")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) queryDetails(ctx echo.Context) error {
	details, err := api.svc.QueryDetails(
		ctx.Request().Context(), ctx.QueryParam("municipality"), ctx.QueryParam("schoolYear"))
	if err != nil {
		return errors.Wrap(err, "querying school details")
	}
	if details == nil {
		details = []school.Details{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *schoolApi) createDetails(ctx echo.Context) error {
	var data school.NewDetails
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDetails")
	}

	details, err := api.svc.CreateDetails(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school details")
	}
	return ctx.JSON(http.StatusCreated, details)
}

func (api *schoolApi) patchDetails(ctx echo.Context) error {
	var data school.PatchDetails
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PatchDetails")
	}

	details, err := api.svc.PatchDetails(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "patching school details")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *schoolApi) deleteDetails(ctx echo.Context) error {
	if err := api.svc.DeleteDetails(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting school details")
	}
	return ctx.NoContent(http.StatusNoContent)
}
