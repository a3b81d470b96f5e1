package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/push"
)

type pushApi struct {
	svc push.ServiceInterface
}

func registerPushAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc push.ServiceInterface) {
	api := pushApi{svc: svc}

	pg := g.Group("/push")
	pg.GET("/vapid-public-key", api.vapidPublicKey)

	ag := pg.Group("", jwt)
	ag.POST("/subscribe", api.subscribe)
	ag.POST("/unsubscribe", api.unsubscribe)
}

// Handlers

func (api *pushApi) vapidPublicKey(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"publicKey": core.Conf.Push.VAPIDPublicKey})
}

func (api *pushApi) subscribe(ctx echo.Context) error {
	var data push.Subscribe
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Subscribe")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Subscribe(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "subscribing")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *pushApi) unsubscribe(ctx echo.Context) error {
	var data push.Unsubscribe
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Unsubscribe")
	}

	if err := api.svc.Unsubscribe(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "unsubscribing")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Unsubscribed."})
}
