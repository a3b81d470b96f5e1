package main

import (
	"bytes"
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bataanhss/websystem/core/user"
	"github.com/bataanhss/websystem/services/email"
	"github.com/bataanhss/websystem/storage/database/dummy"
)

var usrSvc *user.Service

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrSvc = user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
	return &commandLine{usrSvc: usrSvc}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type pwdExtra struct {
	pwd string
}

func runCases(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(pwdExtra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
					return
				}
				if check != nil {
					check(t, tt)
				}
				return
			}
			if tt.wantErr != nil {
				if errCause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func errCause(err error) error {
	type causer interface {
		Cause() error
	}
	for err != nil {
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return err
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr, err := usrSvc.Create(context.Background(), user.NewUser{
		Username: "awe",
		Email:    "awe@test.ph",
		Password: "mdr123",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: pwdExtra{pwd: "lol123"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: pwdExtra{pwd: "lol123"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: pwdExtra{pwd: "lmao123"}},
	}
	runCases(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := usrSvc.GetByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
			t.Error("failed to update new password")
		}
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "kim"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-username", "kim", "-email", "kim@test.ph"}, extra: pwdExtra{pwd: "s3cret"}},
		{name: "update existing", args: []string{"adduser", "-username", "kim", "-admin"}, extra: pwdExtra{pwd: "n3ws3cret"}},
	}
	runCases(t, cli, tests, nil)

	usr, err := usrSvc.GetByUsername(context.Background(), "kim")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if usr.Role != user.RoleAdmin {
		t.Errorf("role = %q, want %q", usr.Role, user.RoleAdmin)
	}
	if err := usr.CheckPassword("n3ws3cret"); err != nil {
		t.Error("password was not updated")
	}
	if !usr.IsActive {
		t.Error("user should be active")
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli := setup(t)

	var called bool
	ensureIndexesFunc = func(ctx context.Context, db *mongo.Database) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "ensure-indexes"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if !called {
		t.Error("ensure-indexes did not run")
	}
}
