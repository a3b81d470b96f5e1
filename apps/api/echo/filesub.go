package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/storage/files"
)

type fileSubApi struct {
	svc      filesub.ServiceInterface
	files    *files.Store
	notifier core.Notifier
}

func registerFileSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc filesub.ServiceInterface,
	fileStore *files.Store,
	notifier core.Notifier,
) {
	api := fileSubApi{svc: svc, files: fileStore, notifier: notifier}

	fg := g.Group("/file-submissions", jwt)
	fg.POST("/upload", api.upload)
	fg.GET("", api.query)
	fg.DELETE("/:id", api.destroy)
	fg.GET("/download/:id", api.download)
	fg.GET("/stats/counts", api.folderCounts)

	adm := g.Group("/admin/file-submissions", jwt, adminMiddleware())
	adm.GET("/history", api.adminHistory)
	adm.GET("/download/:id", api.adminDownload)
}

// Handlers

func (api *fileSubApi) upload(ctx echo.Context) error {
	var data filesub.Upload
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Upload")
	}
	data.Clean()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return core.NewValidationError(errors.New("no files uploaded"))
	}
	fhs := form.File["files"]
	if len(fhs) > filesub.MaxFileCount {
		return core.NewValidationError(errors.Errorf(
			"You can only upload up to %d files.", filesub.MaxFileCount))
	}

	uploaded := make([]filesub.UploadedFile, 0, len(fhs))
	for _, fh := range fhs {
		if fh.Size > filesub.MaxFileSize {
			return core.NewValidationError(errors.New("One of the files is too large."))
		}
		mimeType := fh.Header.Get("Content-Type")
		if !filesub.AllowedMimeType(data.Folder, mimeType) {
			return core.NewValidationError(filesub.ErrInvalidType)
		}
		name, err := api.files.Save(filesub.UploadFolder, fh, "file")
		if err != nil {
			return errors.Wrap(err, "saving submission file")
		}
		uploaded = append(uploaded, filesub.UploadedFile{
			FileName:     name,
			OriginalName: fh.Filename,
			Size:         fh.Size,
			MimeType:     mimeType,
		})
	}

	subs, err := api.svc.Upload(ctx.Request().Context(), claims.Subject, data, uploaded)
	if err != nil {
		return errors.Wrap(err, "creating submissions")
	}

	api.notifier.Notify(ctx.Request().Context(), "file-submission:uploaded", subs, core.Notification{
		Title: "New file submission",
		Body:  fmt.Sprintf("%s • %s • %d file(s)", claims.Username, data.Folder, len(subs)),
		URL:   "/admin/file-submissions",
		Tag:   "file-submission-" + data.Folder,
	})
	return ctx.JSON(http.StatusCreated, subs)
}

func (api *fileSubApi) query(ctx echo.Context) error {
	var filter filesub.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subs, err := api.svc.Query(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []filesub.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *fileSubApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *fileSubApi) download(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission by ID")
	}
	return api.sendFile(ctx, sub)
}

func (api *fileSubApi) adminDownload(ctx echo.Context) error {
	sub, err := api.svc.GetForAdmin(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission by ID")
	}
	return api.sendFile(ctx, sub)
}

func (api *fileSubApi) sendFile(ctx echo.Context, sub filesub.Submission) error {
	path, err := api.files.Path(filesub.UploadFolder, sub.FileName)
	if err != nil {
		return filesub.ErrFileMissing
	}
	return ctx.Attachment(path, sub.OriginalName)
}

func (api *fileSubApi) folderCounts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	counts, err := api.svc.FolderCounts(ctx.Request().Context(), claims.Subject, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "counting submissions")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *fileSubApi) adminHistory(ctx echo.Context) error {
	var filter filesub.AdminFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to AdminFilter")
	}

	subs, err := api.svc.AdminHistory(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying admin submission history")
	}
	if subs == nil {
		subs = []filesub.AdminSubmission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
