package echoapi

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/delivery"
	"github.com/bataanhss/websystem/core/user"
	"github.com/bataanhss/websystem/storage/files"
)

type deliveryApi struct {
	svc      *delivery.Service
	userSvc  user.ServiceInterface
	files    *files.Store
	notifier core.Notifier
}

func registerDeliveryAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *delivery.Service,
	userSvc user.ServiceInterface,
	fileStore *files.Store,
	notifier core.Notifier,
) {
	api := deliveryApi{svc: svc, userSvc: userSvc, files: fileStore, notifier: notifier}

	dg := g.Group("/delivery", jwt)
	dg.POST("/item", api.save)
	dg.DELETE("/item", api.destroy)
	dg.GET("/history", api.history)
	dg.GET("/by-date/:dateKey", api.queryByDate)

	adm := g.Group("/admin/delivery", jwt, adminMiddleware())
	adm.GET("/history", api.adminHistory)
}

// Handlers

func (api *deliveryApi) save(ctx echo.Context) error {
	var data delivery.SaveRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRecord")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	images, err := api.saveImages(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Save(ctx.Request().Context(), claims.Subject, data, images)
	if err != nil {
		return errors.Wrap(err, "saving delivery record")
	}

	api.notifier.Notify(ctx.Request().Context(), "delivery:saved", rec, core.Notification{
		Title: "New delivery saved",
		Body:  fmt.Sprintf("%s • %s • %s", claims.Username, rec.CategoryLabel, rec.DateKey),
		URL:   "/admin/delivery?date=" + rec.DateKey,
		Tag:   "delivery-" + rec.ID,
	})
	return ctx.JSON(http.StatusOK, rec)
}

// saveImages stores the submitted image files and returns their metadata.
func (api *deliveryApi) saveImages(ctx echo.Context) ([]delivery.Image, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil // no multipart body; a JSON save carries no images
	}
	fhs := form.File["images"]
	if len(fhs) == 0 {
		return nil, nil
	}
	if len(fhs) > core.Conf.Uploads.MaxImageCount {
		return nil, core.NewValidationError(errors.Errorf(
			"You can only upload up to %d images.", core.Conf.Uploads.MaxImageCount))
	}

	images := make([]delivery.Image, 0, len(fhs))
	for _, fh := range fhs {
		img, err := api.saveImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (api *deliveryApi) saveImage(fh *multipart.FileHeader) (delivery.Image, error) {
	if fh.Size > core.Conf.Uploads.MaxImageSize {
		return delivery.Image{}, core.NewValidationError(errors.New("One of the images is too large."))
	}
	name, err := api.files.Save(delivery.UploadFolder, fh, "image")
	if err != nil {
		return delivery.Image{}, errors.Wrap(err, "saving delivery image")
	}
	return delivery.Image{
		Filename:     name,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		URL:          "/uploads/" + delivery.UploadFolder + "/" + name,
	}, nil
}

func (api *deliveryApi) destroy(ctx echo.Context) error {
	var data delivery.DeleteRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteRecord")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, data); err != nil {
		return errors.Wrap(err, "deleting delivery record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *deliveryApi) history(ctx echo.Context) error {
	var filter delivery.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	userIDs, err := api.historyUserIDs(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.History(ctx.Request().Context(), userIDs, filter)
	if err != nil {
		return errors.Wrap(err, "querying delivery history")
	}
	if recs == nil {
		recs = []delivery.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

// historyUserIDs resolves whose records the caller may see: their own, plus
// their school's HLA Managers' when the caller is an HLA Coordinator.
func (api *deliveryApi) historyUserIDs(ctx echo.Context) ([]string, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}

	userIDs := []string{usr.ID}
	if usr.IsHLACoordinator() && usr.School != "" {
		managerIDs, err := api.userSvc.QueryIDsBySchoolRole(ctx.Request().Context(), usr.School, user.HLAManager)
		if err != nil {
			return nil, errors.Wrap(err, "querying school manager ids")
		}
		userIDs = append(userIDs, managerIDs...)
	}
	return userIDs, nil
}

func (api *deliveryApi) queryByDate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.QueryByDate(ctx.Request().Context(), claims.Subject, ctx.Param("dateKey"))
	if err != nil {
		return errors.Wrap(err, "querying delivery records")
	}
	if recs == nil {
		recs = []delivery.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *deliveryApi) adminHistory(ctx echo.Context) error {
	var filter delivery.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	recs, err := api.svc.AdminHistory(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying admin delivery history")
	}
	if recs == nil {
		recs = []delivery.AdminRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
