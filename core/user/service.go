package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// QueryUserIDsBySchoolRole returns the IDs of users in a school
		// holding the given HLA role.
		QueryUserIDsBySchoolRole(ctx context.Context, school, hlaRoleType string) ([]string, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, id string, at time.Time) error
		DeleteUser(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		QueryIDsBySchoolRole(ctx context.Context, school, hlaRoleType string) ([]string, error)
		Update(ctx context.Context, usr User) (User, error)
		SetActive(ctx context.Context, id string, isActive bool) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		TouchLastLogin(ctx context.Context, id string) error
		Delete(ctx context.Context, id string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates a self-service account; role defaults to student.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return svc.create(ctx, nu)
}

// Create creates an account on behalf of an admin; role defaults to user.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if nu.Role == "" {
		nu.Role = RoleUser
	}
	return svc.create(ctx, nu)
}

func (svc *Service) create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	if nu.Name == "" {
		nu.Name = nu.Username
	}
	if nu.Province == "" {
		nu.Province = DefaultProvince
	}
	usr := User{
		Username:       nu.Username,
		Email:          nu.Email,
		Name:           nu.Name,
		Role:           nu.Role,
		School:         nu.School,
		ContactNumber:  nu.ContactNumber,
		SchoolAddress:  nu.SchoolAddress,
		HLAManagerName: nu.HLAManagerName,
		HLARoleType:    nu.HLARoleType,
		Municipality:   nu.Municipality,
		Province:       nu.Province,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) QueryIDsBySchoolRole(ctx context.Context, school, hlaRoleType string) ([]string, error) {
	return svc.repo.QueryUserIDsBySchoolRole(ctx, school, hlaRoleType)
}

func (svc *Service) Update(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

func (svc *Service) SetActive(ctx context.Context, id string, isActive bool) (User, error) {
	usr := User{ID: id, UpdatedAt: time.Now().UTC()}
	return svc.repo.UpdateUser(ctx, usr, &isActive)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

func (svc *Service) TouchLastLogin(ctx context.Context, id string) error {
	return svc.repo.SetLastLogin(ctx, id, time.Now().UTC())
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	_, err = svc.SetPassword(ctx, usr, rp.Password)
	return err
}

func (svc *Service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		return
	}
	url := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", core.Conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("%s - Password Reset", core.Conf.AppName),
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYou requested a password reset for your %s account.\n"+
				"Follow the link below to set a new password:\n\n%s\n\n"+
				"If you did not request this, you can safely ignore this email.",
			usr.Name, core.Conf.AppName, url,
		),
	})
}
