package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/school"
	"github.com/bataanhss/websystem/core/user"
)

func TestSchoolDirectory_beneficiaries(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.do(t, http.MethodPost, "/v1/school-directory/beneficiaries/bulk", token, map[string]interface{}{
		"municipality": "Hermosa",
		"schoolYear":   "2026-2027",
		"items": []map[string]interface{}{
			{"bhssKitchenName": "Hermosa Kitchen", "schoolName": "Central ES", "grade2": 10, "grade3": 12, "grade4": 8},
			{"bhssKitchenName": "Hermosa Kitchen", "schoolName": "North ES", "grade2": 5, "grade3": 0, "grade4": 0},
		},
	})
	checkCode(t, rec, http.StatusCreated)
	var bens []school.Beneficiary
	decodeBody(t, rec, &bens)
	require.Len(t, bens, 2)
	assert.Equal(t, float64(30), bens[0].Total) // server derives the total

	// scope filter is required
	rec = env.do(t, http.MethodGet, "/v1/school-directory/beneficiaries", token, nil)
	checkCode(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet,
		"/v1/school-directory/beneficiaries?municipality=Hermosa&schoolYear=2026-2027", token, nil)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &bens)
	assert.Len(t, bens, 2)

	// patching a grade recomputes the total
	rec = env.do(t, http.MethodPatch, "/v1/school-directory/beneficiaries/"+bens[0].ID, token, map[string]interface{}{
		"grade2": 20,
	})
	checkCode(t, rec, http.StatusOK)
	var ben school.Beneficiary
	decodeBody(t, rec, &ben)
	assert.Equal(t, float64(40), ben.Total)

	rec = env.do(t, http.MethodDelete, "/v1/school-directory/beneficiaries/"+bens[1].ID, token, nil)
	checkCode(t, rec, http.StatusNoContent)
	rec = env.do(t, http.MethodDelete, "/v1/school-directory/beneficiaries/"+bens[1].ID, token, nil)
	checkCode(t, rec, http.StatusNotFound)
}

func TestSchoolDirectory_details(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.do(t, http.MethodPost, "/v1/school-directory/details", token, map[string]string{
		"municipality":  "Hermosa",
		"schoolYear":    "2026-2027",
		"completeName":  "  Hermosa Central Elementary School  ",
		"principalName": "P. Reyes",
	})
	checkCode(t, rec, http.StatusCreated)
	var det school.Details
	decodeBody(t, rec, &det)
	assert.Equal(t, "Hermosa Central Elementary School", det.CompleteName)

	// completeName is the one required field
	rec = env.do(t, http.MethodPost, "/v1/school-directory/details", token, map[string]string{
		"municipality": "Hermosa",
	})
	checkCode(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet,
		"/v1/school-directory/details?municipality=Hermosa&schoolYear=2026-2027", token, nil)
	checkCode(t, rec, http.StatusOK)
	var dets []school.Details
	decodeBody(t, rec, &dets)
	require.Len(t, dets, 1)

	rec = env.do(t, http.MethodPatch, "/v1/school-directory/details/"+det.ID, token, map[string]string{
		"chiefCookName": "C. Cruz",
	})
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &det)
	assert.Equal(t, "C. Cruz", det.ChiefCookName)
	assert.Equal(t, "P. Reyes", det.PrincipalName) // untouched fields survive

	rec = env.do(t, http.MethodDelete, "/v1/school-directory/details/"+det.ID, token, nil)
	checkCode(t, rec, http.StatusNoContent)
	rec = env.do(t, http.MethodDelete, "/v1/school-directory/details/"+det.ID, token, nil)
	checkCode(t, rec, http.StatusNotFound)
}
