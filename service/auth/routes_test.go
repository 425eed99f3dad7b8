package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/service/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T, db *gorm.DB) *mux.Router {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	router := mux.NewRouter()
	NewHandler(db).RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router *mux.Router, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validRegistration() map[string]string {
	return map[string]string{
		"name":     "Acme Holdings",
		"email":    "acme@example.com",
		"password": "supersecret",
	}
}

func TestRegisterCreatesEmitterWithSatelliteRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupRouter(t, db)

	rec := postJSON(t, router, "/auth/register", validRegistration())
	require.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		AccessToken string         `json:"access_token"`
		Emitter     models.Emitter `json:"emitter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.AccessToken)
	require.Equal(t, models.StatusPending, response.Emitter.Status)

	var financial models.FinancialData
	require.NoError(t, db.Where("emitter_id = ?", response.Emitter.ID).First(&financial).Error)
	require.Equal(t, "Inactive", financial.CompanyStatus)

	var analyticsRow models.Analytics
	require.NoError(t, db.Where("emitter_id = ?", response.Emitter.ID).First(&analyticsRow).Error)
	require.Equal(t, int64(0), analyticsRow.PageViews)
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupRouter(t, db)

	cases := []struct {
		name string
		mut  func(m map[string]string)
	}{
		{"short name", func(m map[string]string) { m["name"] = "A" }},
		{"bad email", func(m map[string]string) { m["email"] = "not-an-email" }},
		{"short password", func(m map[string]string) { m["password"] = "1234567" }},
		{"bad tax number", func(m map[string]string) { m["tax_number"] = "12345" }},
		{"bad registration number", func(m map[string]string) { m["registration_number"] = "999" }},
		{"bad website", func(m map[string]string) { m["website"] = "ftp://example.com" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validRegistration()
			tc.mut(body)
			rec := postJSON(t, router, "/auth/register", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupRouter(t, db)

	rec := postJSON(t, router, "/auth/register", validRegistration())
	require.Equal(t, http.StatusCreated, rec.Code)

	second := validRegistration()
	second["name"] = "Other Company"
	rec = postJSON(t, router, "/auth/register", second)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupRouter(t, db)

	rec := postJSON(t, router, "/auth/register", validRegistration())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "acme@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.AccessToken)

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "acme@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupRouter(t, db)

	hash, err := bcrypt.GenerateFromPassword([]byte("adminsecret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{
		Username:     "moderator",
		PasswordHash: string(hash),
		Role:         "admin",
	}).Error)

	rec := postJSON(t, router, "/auth/admin/login", map[string]string{
		"username": "moderator",
		"password": "adminsecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/auth/admin/login", map[string]string{
		"password": "adminsecret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/auth/admin/login", map[string]string{
		"username": "moderator",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
