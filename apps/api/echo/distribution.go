package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core/distribution"
)

type distributionApi struct {
	svc *distribution.Service
}

func registerDistributionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *distribution.Service) {
	api := distributionApi{svc: svc}

	dg := g.Group("/admin/distribution/:kind", jwt, adminMiddleware(), kindMiddleware())
	dg.POST("/batches", api.submitBatch)
	dg.GET("/batches", api.queryBatches)
	dg.GET("/latest", api.latest)
	dg.GET("/batches/:id", api.getBatch)
	dg.DELETE("/batches/:id", api.deleteBatch)
	dg.PATCH("/rows/:id", api.patchRow)
}

const contextKindKey = "distributionKind"

// kindMiddleware resolves the :kind path param; unknown kinds are a 404.
func kindMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			kind, ok := distribution.ParseKind(ctx.Param("kind"))
			if !ok {
				return errHttpNotFound
			}
			ctx.Set(contextKindKey, kind)
			return next(ctx)
		}
	}
}

func contextKind(ctx echo.Context) distribution.Kind {
	kind, _ := ctx.Get(contextKindKey).(distribution.Kind)
	return kind
}

// Handlers

func (api *distributionApi) submitBatch(ctx echo.Context) error {
	var data distribution.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.SubmitBatch(ctx.Request().Context(), contextKind(ctx), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "submitting batch")
	}
	if res.Unchanged {
		return ctx.JSON(http.StatusOK, res)
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *distributionApi) queryBatches(ctx echo.Context) error {
	batches, err := api.svc.QueryBatches(ctx.Request().Context(), contextKind(ctx))
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []distribution.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *distributionApi) latest(ctx echo.Context) error {
	batch, rows, err := api.svc.Latest(ctx.Request().Context(), contextKind(ctx))
	if err != nil {
		return errors.Wrap(err, "querying latest batch")
	}
	return ctx.JSON(http.StatusOK, BatchDetailResponse{Batch: batch, Rows: rows})
}

func (api *distributionApi) getBatch(ctx echo.Context) error {
	batch, rows, err := api.svc.GetBatch(ctx.Request().Context(), contextKind(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding batch by ID")
	}
	return ctx.JSON(http.StatusOK, BatchDetailResponse{Batch: &batch, Rows: rows})
}

func (api *distributionApi) deleteBatch(ctx echo.Context) error {
	if err := api.svc.DeleteBatch(ctx.Request().Context(), contextKind(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *distributionApi) patchRow(ctx echo.Context) error {
	var data distribution.PatchRow
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PatchRow")
	}

	row, err := api.svc.PatchRow(ctx.Request().Context(), contextKind(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "patching row")
	}
	return ctx.JSON(http.StatusOK, row)
}

// BatchDetailResponse pairs a batch with its rows; Batch is null when no
// upload exists yet.
type BatchDetailResponse struct {
	Batch *distribution.Batch `json:"batch"`
	Rows  []distribution.Row  `json:"rows"`
}
