package school

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

var (
	ErrNotFound = errors.New("row not found")

	errScopeRequired      = core.NewValidationError(errors.New("municipality and schoolYear are required"))
	errItemsRequired      = core.NewValidationError(errors.New("items is required"))
	errItemFieldsRequired = core.NewValidationError(errors.New("each item requires bhssKitchenName and schoolName"))
	errNameRequired       = core.NewValidationError(errors.New("completeName is required"))
)

// Repository persists the school directory.
type Repository interface {
	// QueryBeneficiaries returns rows for a municipality and school year,
	// sorted by kitchen then school name, newest first within ties.
	QueryBeneficiaries(ctx context.Context, municipality, schoolYear string) ([]Beneficiary, error)
	CreateBeneficiaries(ctx context.Context, rows []Beneficiary) ([]Beneficiary, error)
	GetBeneficiaryByID(ctx context.Context, id string) (Beneficiary, error)
	UpdateBeneficiary(ctx context.Context, row Beneficiary) (Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, id string) error

	// QueryDetails returns rows sorted by complete name, newest first
	// within ties.
	QueryDetails(ctx context.Context, municipality, schoolYear string) ([]Details, error)
	CreateDetails(ctx context.Context, row Details) (Details, error)
	GetDetailsByID(ctx context.Context, id string) (Details, error)
	UpdateDetails(ctx context.Context, row Details) (Details, error)
	DeleteDetails(ctx context.Context, id string) error
}

type ServiceInterface interface {
	QueryBeneficiaries(ctx context.Context, municipality, schoolYear string) ([]Beneficiary, error)
	CreateBeneficiaries(ctx context.Context, data BulkBeneficiaries) ([]Beneficiary, error)
	PatchBeneficiary(ctx context.Context, id string, data PatchBeneficiary) (Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, id string) error

	QueryDetails(ctx context.Context, municipality, schoolYear string) ([]Details, error)
	CreateDetails(ctx context.Context, data NewDetails) (Details, error)
	PatchDetails(ctx context.Context, id string, data PatchDetails) (Details, error)
	DeleteDetails(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryBeneficiaries(ctx context.Context, municipality, schoolYear string) ([]Beneficiary, error) {
	municipality, schoolYear = strings.TrimSpace(municipality), strings.TrimSpace(schoolYear)
	if municipality == "" || schoolYear == "" {
		return nil, errScopeRequired
	}
	return svc.repo.QueryBeneficiaries(ctx, municipality, schoolYear)
}

func (svc *Service) CreateBeneficiaries(ctx context.Context, data BulkBeneficiaries) ([]Beneficiary, error) {
	data.Clean()
	if data.Municipality == "" || data.SchoolYear == "" {
		return nil, errScopeRequired
	}
	if len(data.Items) == 0 {
		return nil, errItemsRequired
	}

	rows := make([]Beneficiary, 0, len(data.Items))
	for _, it := range data.Items {
		if it.KitchenName == "" || it.SchoolName == "" {
			return nil, errItemFieldsRequired
		}
		row := Beneficiary{
			Municipality: data.Municipality,
			SchoolYear:   data.SchoolYear,
			KitchenName:  it.KitchenName,
			SchoolName:   it.SchoolName,
			Grade2:       it.Grade2,
			Grade3:       it.Grade3,
			Grade4:       it.Grade4,
		}
		row.ComputeTotal()
		rows = append(rows, row)
	}
	return svc.repo.CreateBeneficiaries(ctx, rows)
}

func (svc *Service) PatchBeneficiary(ctx context.Context, id string, data PatchBeneficiary) (Beneficiary, error) {
	row, err := svc.repo.GetBeneficiaryByID(ctx, id)
	if err != nil {
		return Beneficiary{}, err
	}
	if data.KitchenName != nil {
		row.KitchenName = strings.TrimSpace(*data.KitchenName)
	}
	if data.SchoolName != nil {
		row.SchoolName = strings.TrimSpace(*data.SchoolName)
	}
	if data.Grade2 != nil {
		row.Grade2 = finite(*data.Grade2)
	}
	if data.Grade3 != nil {
		row.Grade3 = finite(*data.Grade3)
	}
	if data.Grade4 != nil {
		row.Grade4 = finite(*data.Grade4)
	}
	row.ComputeTotal()
	return svc.repo.UpdateBeneficiary(ctx, row)
}

func (svc *Service) DeleteBeneficiary(ctx context.Context, id string) error {
	return svc.repo.DeleteBeneficiary(ctx, id)
}

func (svc *Service) QueryDetails(ctx context.Context, municipality, schoolYear string) ([]Details, error) {
	municipality, schoolYear = strings.TrimSpace(municipality), strings.TrimSpace(schoolYear)
	if municipality == "" || schoolYear == "" {
		return nil, errScopeRequired
	}
	return svc.repo.QueryDetails(ctx, municipality, schoolYear)
}

func (svc *Service) CreateDetails(ctx context.Context, data NewDetails) (Details, error) {
	data.Clean()
	if data.Municipality == "" || data.SchoolYear == "" {
		return Details{}, errScopeRequired
	}
	if data.CompleteName == "" {
		return Details{}, errNameRequired
	}
	row := Details{
		Municipality:           data.Municipality,
		SchoolYear:             data.SchoolYear,
		CompleteName:           data.CompleteName,
		PrincipalName:          data.PrincipalName,
		PrincipalContact:       data.PrincipalContact,
		HLACoordinatorName:     data.HLACoordinatorName,
		HLACoordinatorContact:  data.HLACoordinatorContact,
		HLACoordinatorFacebook: data.HLACoordinatorFacebook,
		HLAManagerName:         data.HLAManagerName,
		HLAManagerContact:      data.HLAManagerContact,
		HLAManagerFacebook:     data.HLAManagerFacebook,
		ChiefCookName:          data.ChiefCookName,
		ChiefCookContact:       data.ChiefCookContact,
		ChiefCookFacebook:      data.ChiefCookFacebook,
		AssistantCookName:      data.AssistantCookName,
		AssistantCookContact:   data.AssistantCookContact,
		AssistantCookFacebook:  data.AssistantCookFacebook,
		NurseName:              data.NurseName,
		NurseContact:           data.NurseContact,
		NurseFacebook:          data.NurseFacebook,
	}
	return svc.repo.CreateDetails(ctx, row)
}

func (svc *Service) PatchDetails(ctx context.Context, id string, data PatchDetails) (Details, error) {
	row, err := svc.repo.GetDetailsByID(ctx, id)
	if err != nil {
		return Details{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&row.CompleteName, data.CompleteName)
	apply(&row.PrincipalName, data.PrincipalName)
	apply(&row.PrincipalContact, data.PrincipalContact)
	apply(&row.HLACoordinatorName, data.HLACoordinatorName)
	apply(&row.HLACoordinatorContact, data.HLACoordinatorContact)
	apply(&row.HLACoordinatorFacebook, data.HLACoordinatorFacebook)
	apply(&row.HLAManagerName, data.HLAManagerName)
	apply(&row.HLAManagerContact, data.HLAManagerContact)
	apply(&row.HLAManagerFacebook, data.HLAManagerFacebook)
	apply(&row.ChiefCookName, data.ChiefCookName)
	apply(&row.ChiefCookContact, data.ChiefCookContact)
	apply(&row.ChiefCookFacebook, data.ChiefCookFacebook)
	apply(&row.AssistantCookName, data.AssistantCookName)
	apply(&row.AssistantCookContact, data.AssistantCookContact)
	apply(&row.AssistantCookFacebook, data.AssistantCookFacebook)
	apply(&row.NurseName, data.NurseName)
	apply(&row.NurseContact, data.NurseContact)
	apply(&row.NurseFacebook, data.NurseFacebook)

	if row.CompleteName == "" {
		return Details{}, errNameRequired
	}
	return svc.repo.UpdateDetails(ctx, row)
}

func (svc *Service) DeleteDetails(ctx context.Context, id string) error {
	return svc.repo.DeleteDetails(ctx, id)
}
