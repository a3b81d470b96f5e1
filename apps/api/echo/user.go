package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/user"
	"github.com/bataanhss/websystem/storage/files"
)

const (
	avatarFolder      = "avatars"
	maxAvatarSize     = 5 << 20
	errTooLargeAvatar = "avatar is too large"
)

type userApi struct {
	svc   user.ServiceInterface
	files *files.Store
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.ServiceInterface) {
	api := userApi{svc: svc}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.ServiceInterface, fileStore *files.Store) {
	api := userApi{svc: svc, files: fileStore}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("", api.create, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", selfOrAdminMiddleware())
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.PATCH("/active", api.setActive, adminMiddleware())
	dg.PATCH("/password", api.changePassword)
	dg.POST("/avatar", api.uploadAvatar)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, LoginResponse{Token: token, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, claims, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if data.IsEmpty() {
		return ctx.JSON(http.StatusOK, usr)
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		// role, school, municipality, province and isActive can only be
		// changed by an admin
		if data.Role != nil || data.School != nil || data.Municipality != nil ||
			data.Province != nil || data.IsActive != nil {
			return errHttpForbidden
		}
	}

	if err := data.Validate(usr, api.svc); err != nil {
		return err
	}

	applyUserUpdate(&usr, data)
	usr, err = api.svc.Update(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	if data.IsActive != nil {
		usr, err = api.svc.SetActive(ctx.Request().Context(), usr.ID, *data.IsActive)
		if err != nil {
			return errors.Wrap(err, "setting active flag")
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setActive(ctx echo.Context) error {
	var data ActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActiveRequest")
	}
	if data.IsActive == nil {
		return core.NewValidationError(errors.New("isActive is required"))
	}

	usr, err := api.svc.SetActive(ctx.Request().Context(), ctx.Param("id"), *data.IsActive)
	if err != nil {
		return errors.Wrap(err, "setting active flag")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	newPwd := data.NewPassword
	if claims.IsAdmin && claims.Subject != usr.ID {
		// an admin sets the password directly
		if data.Password != "" {
			newPwd = data.Password
		}
	} else {
		if err := usr.CheckPassword(data.CurrentPassword); err != nil {
			return core.NewValidationError(errors.New("current password is incorrect"))
		}
	}
	if newPwd == "" {
		return core.NewValidationError(errors.New("new password is required"))
	}

	if _, err = api.svc.SetPassword(ctx.Request().Context(), usr, newPwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password updated."})
}

func (api *userApi) uploadAvatar(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	fh, err := ctx.FormFile("avatar")
	if err != nil {
		return core.NewValidationError(errors.New("avatar file is required"))
	}
	if fh.Size > maxAvatarSize {
		return core.NewValidationError(errors.New(errTooLargeAvatar))
	}
	if mt := fh.Header.Get("Content-Type"); mt != "image/jpeg" && mt != "image/png" {
		return core.NewValidationError(errors.New("only JPEG/PNG images are allowed"))
	}

	name, err := api.files.Save(avatarFolder, fh, "avatar")
	if err != nil {
		return errors.Wrap(err, "saving avatar")
	}

	usr.AvatarURL = "/uploads/" + avatarFolder + "/" + name
	usr, err = api.svc.Update(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// Say No to Suicide! ctxUser cannot delete themselves
	if ctx.Param("id") == claims.Subject {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func applyUserUpdate(usr *user.User, data user.UpdateUser) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&usr.Username, data.Username)
	set(&usr.Email, data.Email)
	set(&usr.Name, data.Name)
	set(&usr.ContactNumber, data.ContactNumber)
	set(&usr.SchoolAddress, data.SchoolAddress)
	set(&usr.HLAManagerName, data.HLAManagerName)
	set(&usr.HLARoleType, data.HLARoleType)
	set(&usr.AvatarURL, data.AvatarURL)
	set(&usr.Role, data.Role)
	set(&usr.School, data.School)
	set(&usr.Municipality, data.Municipality)
	set(&usr.Province, data.Province)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ActiveRequest struct {
		IsActive *bool `json:"isActive"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}
