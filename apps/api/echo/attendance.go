package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	notifier core.Notifier
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, notifier core.Notifier) {
	api := attendanceApi{svc: svc, notifier: notifier}

	ag := g.Group("/attendance", jwt)
	ag.POST("/record", api.save)
	ag.POST("/record/bulk", api.saveBulk)
	ag.GET("/by-date/:dateKey", api.getByDate)
	ag.GET("/by-date/:dateKey/all", api.queryByDate)
	ag.GET("/history", api.history)

	adm := g.Group("/admin/attendance", jwt, adminMiddleware())
	adm.GET("/history", api.adminHistory)
}

// Handlers

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.SaveRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRecord")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.Save(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "saving attendance record")
	}

	api.notifier.Notify(ctx.Request().Context(), "attendance:saved", rec, core.Notification{
		Title: "New attendance saved",
		Body:  fmt.Sprintf("%s • %s • %s", claims.Username, rec.Grade, rec.DateKey),
		URL:   "/admin/attendance?date=" + rec.DateKey,
		Tag:   "attendance-" + rec.ID,
	})
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) saveBulk(ctx echo.Context) error {
	var data attendance.SaveBulk
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveBulk")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.SaveBulk(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "saving attendance records")
	}

	api.notifier.Notify(ctx.Request().Context(), "attendance:saved", recs, core.Notification{
		Title: "New attendance saved",
		Body:  fmt.Sprintf("%s • %d grade(s) • %s", claims.Username, len(recs), data.DateKey),
		URL:   "/admin/attendance?date=" + data.DateKey,
		Tag:   "attendance-bulk-" + data.DateKey,
	})
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) getByDate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.GetByDate(ctx.Request().Context(), claims.Subject, ctx.Param("dateKey"), ctx.QueryParam("grade"))
	if err != nil {
		return errors.Wrap(err, "finding attendance record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) queryByDate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.QueryByDate(ctx.Request().Context(), claims.Subject, ctx.Param("dateKey"))
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	recs, err := api.svc.History(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) adminHistory(ctx echo.Context) error {
	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	recs, err := api.svc.AdminHistory(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying admin attendance history")
	}
	if recs == nil {
		recs = []attendance.AdminRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
