package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/announcement"
	"github.com/bataanhss/websystem/storage/files"
)

const maxAnnouncementAttachments = 6

type announcementApi struct {
	svc      *announcement.Service
	files    *files.Store
	notifier core.Notifier
}

func registerAnnouncementAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *announcement.Service,
	fileStore *files.Store,
	notifier core.Notifier,
) {
	api := announcementApi{svc: svc, files: fileStore, notifier: notifier}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)

	adm := g.Group("/admin/announcements", jwt, adminMiddleware())
	adm.POST("", api.create)
}

// Handlers

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	atts, err := api.saveAttachments(ctx)
	if err != nil {
		return err
	}

	ann, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data, atts)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}

	api.notifier.Notify(ctx.Request().Context(), "announcement:created", ann, core.Notification{
		Title: "New announcement",
		Body:  ann.Title,
		URL:   "/announcements/" + ann.ID,
		Tag:   "announcement-" + ann.ID,
	})
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) query(ctx echo.Context) error {
	anns, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	ann, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding announcement by ID")
	}
	return ctx.JSON(http.StatusOK, ann)
}

// saveAttachments stores the optional attachment files of an announcement
// form, capped in count and per-file size.
func (api *announcementApi) saveAttachments(ctx echo.Context) ([]announcement.Attachment, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil // JSON body; no attachments
	}
	fhs := form.File["attachments"]
	if len(fhs) == 0 {
		return nil, nil
	}
	if len(fhs) > maxAnnouncementAttachments {
		return nil, core.NewValidationError(errors.Errorf(
			"You can only upload up to %d attachments.", maxAnnouncementAttachments))
	}

	atts := make([]announcement.Attachment, 0, len(fhs))
	for _, fh := range fhs {
		if fh.Size > core.Conf.Uploads.MaxAttachmentSize {
			return nil, core.NewValidationError(errors.New("One of the attachments is too large."))
		}
		name, err := api.files.Save(announcement.UploadFolder, fh, "attachment")
		if err != nil {
			return nil, errors.Wrap(err, "saving announcement attachment")
		}
		atts = append(atts, announcement.Attachment{
			Filename:     name,
			OriginalName: fh.Filename,
			MimeType:     fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			URL:          "/uploads/" + announcement.UploadFolder + "/" + name,
		})
	}
	return atts, nil
}
