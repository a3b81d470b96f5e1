package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/user"
)

// addUser creates a user, or resets the password and role of an existing one.
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	role := user.RoleUser
	if isAdmin {
		role = user.RoleAdmin
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Username: uname,
			Email:    email,
			Password: pwd,
			Role:     role,
		})
		return err
	}

	usr.Role = role
	if usr, err = cli.usrSvc.Update(ctx, usr); err != nil {
		return err
	}
	if !usr.IsActive {
		if usr, err = cli.usrSvc.SetActive(ctx, usr.ID, true); err != nil {
			return err
		}
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
