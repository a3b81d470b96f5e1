package user

import (
	"context"

	"github.com/bataanhss/websystem/core"
)

type serviceMock struct {
	Service
}

func NewServiceMock(repo Repository, mailSvc core.EmailService) ServiceInterface {
	return &serviceMock{
		Service: Service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
