package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/event"
	"github.com/bataanhss/websystem/storage/files"
)

type eventApi struct {
	svc      *event.Service
	files    *files.Store
	notifier core.Notifier
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *event.Service, fileStore *files.Store, notifier core.Notifier) {
	api := eventApi{svc: svc, files: fileStore, notifier: notifier}

	eg := g.Group("/events", jwt)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)

	adm := g.Group("/admin/events", jwt, adminMiddleware())
	adm.GET("", api.adminQuery)
	adm.POST("", api.create)
	adm.PUT("/:id", api.update)
	adm.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.saveAttachment(ctx)
	if err != nil {
		return err
	}

	ev, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data, att)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}

	api.notifier.Notify(ctx.Request().Context(), "event:created", ev, core.Notification{
		Title: "New event scheduled",
		Body:  fmt.Sprintf("%s • %s %s", ev.Title, ev.DateKey, ev.StartTime),
		URL:   "/events/" + ev.ID,
		Tag:   "event-" + ev.ID,
	})
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}

	att, err := api.saveAttachment(ctx)
	if err != nil {
		return err
	}

	ev, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, att)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) cancel(ctx echo.Context) error {
	var data event.CancelEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelEvent")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ev, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Reason)
	if err != nil {
		return errors.Wrap(err, "cancelling event")
	}

	api.notifier.Notify(ctx.Request().Context(), "event:cancelled", ev, core.Notification{
		Title: "Event cancelled",
		Body:  fmt.Sprintf("%s • %s", ev.Title, ev.CancelReason),
		URL:   "/events/" + ev.ID,
		Tag:   "event-" + ev.ID,
	})
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) adminQuery(ctx echo.Context) error {
	var filter event.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	events, err := api.svc.AdminQuery(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) query(ctx echo.Context) error {
	var filter event.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	events, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}

	summaries := make([]event.Summary, 0, len(events))
	for _, ev := range events {
		summaries = append(summaries, ev.Summary())
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	ev, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	return ctx.JSON(http.StatusOK, ev)
}

// saveAttachment stores the optional single attachment of an event form.
func (api *eventApi) saveAttachment(ctx echo.Context) (*event.Attachment, error) {
	fh, err := ctx.FormFile("attachment")
	if err != nil {
		return nil, nil // no attachment submitted
	}
	if fh.Size > core.Conf.Uploads.MaxAttachmentSize {
		return nil, core.NewValidationError(errors.New("attachment is too large"))
	}

	name, err := api.files.Save(event.UploadFolder, fh, "attachment")
	if err != nil {
		return nil, errors.Wrap(err, "saving event attachment")
	}
	return &event.Attachment{
		Filename:     name,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		URL:          "/uploads/" + event.UploadFolder + "/" + name,
	}, nil
}
