package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bataanhss/websystem/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleStudent = "student"
)

// HLA role types
const (
	HLACoordinator = "HLA Coordinator"
	HLAManager     = "HLA Manager"
)

var AllRoles = []string{RoleAdmin, RoleUser, RoleStudent}

const DefaultProvince = "Bataan"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	School         string    `json:"school"`
	ContactNumber  string    `json:"contactNumber"`
	SchoolAddress  string    `json:"schoolAddress"`
	HLAManagerName string    `json:"hlaManagerName"`
	HLARoleType    string    `json:"hlaRoleType"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	Municipality   string    `json:"municipality"`
	Province       string    `json:"province"`
	IsActive       bool      `json:"isActive"`
	PasswordHash   []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
	LastLogin      time.Time `json:"lastLogin,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) IsHLACoordinator() bool { return u.HLARoleType == HLACoordinator }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
	Name            string `json:"name"`
	Role            string `json:"role" validate:"omitempty,oneof=admin user student"`
	School          string `json:"school"`
	ContactNumber   string `json:"contactNumber"`
	SchoolAddress   string `json:"schoolAddress"`
	HLAManagerName  string `json:"hlaManagerName"`
	HLARoleType     string `json:"hlaRoleType"`
	Municipality    string `json:"municipality"`
	Province        string `json:"province"`
}

func (nu *NewUser) Validate(svc ServiceInterface) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.School = core.CleanString(nu.School)
	nu.ContactNumber = core.CleanString(nu.ContactNumber)
	nu.SchoolAddress = core.CleanString(nu.SchoolAddress)
	nu.HLAManagerName = core.CleanString(nu.HLAManagerName)
	nu.HLARoleType = core.CleanString(nu.HLARoleType)
	nu.Municipality = core.CleanString(nu.Municipality)
	nu.Province = core.CleanString(nu.Province)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. Nil pointers mean "leave unchanged"; role, school, municipality,
// province and isActive only apply when the caller is an admin.
type UpdateUser struct {
	Username       *string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Name           *string `json:"name"`
	ContactNumber  *string `json:"contactNumber"`
	SchoolAddress  *string `json:"schoolAddress"`
	HLAManagerName *string `json:"hlaManagerName"`
	HLARoleType    *string `json:"hlaRoleType"`
	AvatarURL      *string `json:"avatarUrl"`

	// admin-only
	Role         *string `json:"role" validate:"omitempty,oneof=admin user student"`
	School       *string `json:"school"`
	Municipality *string `json:"municipality"`
	Province     *string `json:"province"`
	IsActive     *bool   `json:"isActive"`
}

func (uu *UpdateUser) clean() {
	cleanPtr := func(p *string, lower bool) {
		if p != nil {
			*p = core.CleanString(*p, lower)
		}
	}
	cleanPtr(uu.Username, true)
	cleanPtr(uu.Email, true)
	cleanPtr(uu.Name, false)
	cleanPtr(uu.ContactNumber, false)
	cleanPtr(uu.SchoolAddress, false)
	cleanPtr(uu.HLAManagerName, false)
	cleanPtr(uu.HLARoleType, false)
	cleanPtr(uu.AvatarURL, false)
	cleanPtr(uu.Role, true)
	cleanPtr(uu.School, false)
	cleanPtr(uu.Municipality, false)
	cleanPtr(uu.Province, false)
}

func (uu *UpdateUser) IsEmpty() bool {
	return uu.Username == nil && uu.Email == nil && uu.Name == nil &&
		uu.ContactNumber == nil && uu.SchoolAddress == nil &&
		uu.HLAManagerName == nil && uu.HLARoleType == nil && uu.AvatarURL == nil &&
		uu.Role == nil && uu.School == nil && uu.Municipality == nil &&
		uu.Province == nil && uu.IsActive == nil
}

func (uu *UpdateUser) Validate(origUsr User, svc ServiceInterface) error {
	uu.clean()
	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	if uu.Username != nil || uu.Email != nil {
		uname, email := origUsr.Username, origUsr.Email
		if uu.Username != nil {
			uname = *uu.Username
		}
		if uu.Email != nil {
			email = *uu.Email
		}
		return svc.CheckUniqueness(uname, email, origUsr)
	}
	return nil
}

// ChangePassword carries a password change request; admins may set a new
// password directly, regular users must provide their current one.
type ChangePassword struct {
	Password        string `json:"password" validate:"omitempty,min=6"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

func (cp ChangePassword) Validate() error { return core.Validate.Struct(cp) }

type ResetUserPassword struct {
	Token           string `json:"token" validate:"required"`
	UID             string `json:"uid" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }
