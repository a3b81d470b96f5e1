package school

import (
	"math"
	"strings"
	"time"
)

// Beneficiary is one school's enrolled beneficiary counts for a school year.
// Total is derived from the grade counts and never accepted from clients.
type Beneficiary struct {
	ID           string    `json:"id"`
	Municipality string    `json:"municipality"`
	SchoolYear   string    `json:"schoolYear"`
	KitchenName  string    `json:"bhssKitchenName"`
	SchoolName   string    `json:"schoolName"`
	Grade2       float64   `json:"grade2"`
	Grade3       float64   `json:"grade3"`
	Grade4       float64   `json:"grade4"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ComputeTotal recalculates Total from the grade counts.
func (b *Beneficiary) ComputeTotal() {
	b.Total = finite(b.Grade2) + finite(b.Grade3) + finite(b.Grade4)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BeneficiaryInput is one item of a bulk beneficiary insert.
type BeneficiaryInput struct {
	KitchenName string  `json:"bhssKitchenName"`
	SchoolName  string  `json:"schoolName"`
	Grade2      float64 `json:"grade2"`
	Grade3      float64 `json:"grade3"`
	Grade4      float64 `json:"grade4"`
}

// BulkBeneficiaries creates several beneficiary rows under one municipality
// and school year.
type BulkBeneficiaries struct {
	Municipality string             `json:"municipality"`
	SchoolYear   string             `json:"schoolYear"`
	Items        []BeneficiaryInput `json:"items"`
}

func (b *BulkBeneficiaries) Clean() {
	b.Municipality = strings.TrimSpace(b.Municipality)
	b.SchoolYear = strings.TrimSpace(b.SchoolYear)
	for i := range b.Items {
		b.Items[i].KitchenName = strings.TrimSpace(b.Items[i].KitchenName)
		b.Items[i].SchoolName = strings.TrimSpace(b.Items[i].SchoolName)
		b.Items[i].Grade2 = finite(b.Items[i].Grade2)
		b.Items[i].Grade3 = finite(b.Items[i].Grade3)
		b.Items[i].Grade4 = finite(b.Items[i].Grade4)
	}
}

// PatchBeneficiary updates a single beneficiary row; nil fields are left
// unchanged.
type PatchBeneficiary struct {
	KitchenName *string  `json:"bhssKitchenName"`
	SchoolName  *string  `json:"schoolName"`
	Grade2      *float64 `json:"grade2"`
	Grade3      *float64 `json:"grade3"`
	Grade4      *float64 `json:"grade4"`
}

// Details holds a school's contact directory for a school year.
type Details struct {
	ID                     string    `json:"id"`
	Municipality           string    `json:"municipality"`
	SchoolYear             string    `json:"schoolYear"`
	CompleteName           string    `json:"completeName"`
	PrincipalName          string    `json:"principalName"`
	PrincipalContact       string    `json:"principalContact"`
	HLACoordinatorName     string    `json:"hlaCoordinatorName"`
	HLACoordinatorContact  string    `json:"hlaCoordinatorContact"`
	HLACoordinatorFacebook string    `json:"hlaCoordinatorFacebook"`
	HLAManagerName         string    `json:"hlaManagerName"`
	HLAManagerContact      string    `json:"hlaManagerContact"`
	HLAManagerFacebook     string    `json:"hlaManagerFacebook"`
	ChiefCookName          string    `json:"chiefCookName"`
	ChiefCookContact       string    `json:"chiefCookContact"`
	ChiefCookFacebook      string    `json:"chiefCookFacebook"`
	AssistantCookName      string    `json:"assistantCookName"`
	AssistantCookContact   string    `json:"assistantCookContact"`
	AssistantCookFacebook  string    `json:"assistantCookFacebook"`
	NurseName              string    `json:"nurseName"`
	NurseContact           string    `json:"nurseContact"`
	NurseFacebook          string    `json:"nurseFacebook"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// NewDetails creates a school details row.
type NewDetails struct {
	Municipality           string `json:"municipality"`
	SchoolYear             string `json:"schoolYear"`
	CompleteName           string `json:"completeName"`
	PrincipalName          string `json:"principalName"`
	PrincipalContact       string `json:"principalContact"`
	HLACoordinatorName     string `json:"hlaCoordinatorName"`
	HLACoordinatorContact  string `json:"hlaCoordinatorContact"`
	HLACoordinatorFacebook string `json:"hlaCoordinatorFacebook"`
	HLAManagerName         string `json:"hlaManagerName"`
	HLAManagerContact      string `json:"hlaManagerContact"`
	HLAManagerFacebook     string `json:"hlaManagerFacebook"`
	ChiefCookName          string `json:"chiefCookName"`
	ChiefCookContact       string `json:"chiefCookContact"`
	ChiefCookFacebook      string `json:"chiefCookFacebook"`
	AssistantCookName      string `json:"assistantCookName"`
	AssistantCookContact   string `json:"assistantCookContact"`
	AssistantCookFacebook  string `json:"assistantCookFacebook"`
	NurseName              string `json:"nurseName"`
	NurseContact           string `json:"nurseContact"`
	NurseFacebook          string `json:"nurseFacebook"`
}

func (d *NewDetails) Clean() {
	fields := []*string{
		&d.Municipality, &d.SchoolYear, &d.CompleteName,
		&d.PrincipalName, &d.PrincipalContact,
		&d.HLACoordinatorName, &d.HLACoordinatorContact, &d.HLACoordinatorFacebook,
		&d.HLAManagerName, &d.HLAManagerContact, &d.HLAManagerFacebook,
		&d.ChiefCookName, &d.ChiefCookContact, &d.ChiefCookFacebook,
		&d.AssistantCookName, &d.AssistantCookContact, &d.AssistantCookFacebook,
		&d.NurseName, &d.NurseContact, &d.NurseFacebook,
	}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// PatchDetails updates a school details row; nil fields are left unchanged.
// Municipality and school year are fixed once created.
type PatchDetails struct {
	CompleteName           *string `json:"completeName"`
	PrincipalName          *string `json:"principalName"`
	PrincipalContact       *string `json:"principalContact"`
	HLACoordinatorName     *string `json:"hlaCoordinatorName"`
	HLACoordinatorContact  *string `json:"hlaCoordinatorContact"`
	HLACoordinatorFacebook *string `json:"hlaCoordinatorFacebook"`
	HLAManagerName         *string `json:"hlaManagerName"`
	HLAManagerContact      *string `json:"hlaManagerContact"`
	HLAManagerFacebook     *string `json:"hlaManagerFacebook"`
	ChiefCookName          *string `json:"chiefCookName"`
	ChiefCookContact       *string `json:"chiefCookContact"`
	ChiefCookFacebook      *string `json:"chiefCookFacebook"`
	AssistantCookName      *string `json:"assistantCookName"`
	AssistantCookContact   *string `json:"assistantCookContact"`
	AssistantCookFacebook  *string `json:"assistantCookFacebook"`
	NurseName              *string `json:"nurseName"`
	NurseContact           *string `json:"nurseContact"`
	NurseFacebook          *string `json:"nurseFacebook"`
}
