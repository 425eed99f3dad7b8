package emitter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"github.com/otcboard/otcboard-server/service/subscription"
	"github.com/otcboard/otcboard-server/service/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T, db *gorm.DB) (*mux.Router, *models.Emitter, string) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	em := models.Emitter{
		Name:         "Acme Holdings",
		Email:        "acme@example.com",
		PasswordHash: "x",
		Status:       models.StatusPending,
	}
	require.NoError(t, db.Create(&em).Error)
	require.NoError(t, db.Create(&models.FinancialData{EmitterID: em.ID, CompanyStatus: "Inactive"}).Error)
	require.NoError(t, db.Create(&models.Analytics{EmitterID: em.ID}).Error)

	router := mux.NewRouter()
	ledger := subscription.NewLedger(db, 100, 365)
	NewHandler(db, ledger).RegisterRoutes(router)

	token, err := utils.GenerateToken(em.ID, utils.RoleEmitter)
	require.NoError(t, err)
	return router, &em, token
}

func do(t *testing.T, router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetProfileWithActiveSubscription(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, em, token := setup(t, db)

	ledger := subscription.NewLedger(db, 100, 365)
	_, err := ledger.Activate(em.ID, 10)
	require.NoError(t, err)

	rec := do(t, router, "GET", "/profile/emitter", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Name         string `json:"name"`
		Subscription *struct {
			DaysRemaining int  `json:"days_remaining"`
			IsActive      bool `json:"is_active"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "Acme Holdings", response.Name)
	require.NotNil(t, response.Subscription)
	require.True(t, response.Subscription.IsActive)
	require.Equal(t, 10, response.Subscription.DaysRemaining)
}

func TestGetProfileWithoutSubscription(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, _, token := setup(t, db)

	rec := do(t, router, "GET", "/profile/emitter", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Subscription *json.RawMessage `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Nil(t, response.Subscription)
}

func TestUpdateProfilePartial(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, em, token := setup(t, db)

	rec := do(t, router, "PUT", "/profile/emitter", token, map[string]string{
		"description": "OTC holding company",
		"phone":       "+70000000000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Emitter
	require.NoError(t, db.First(&stored, em.ID).Error)
	require.Equal(t, "OTC holding company", stored.Description)
	require.Equal(t, "+70000000000", stored.Phone)
	// Untouched fields keep their values.
	require.Equal(t, "Acme Holdings", stored.Name)
}

func TestUpdateProfileRejectsInvalidInputWithoutChanges(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, em, token := setup(t, db)

	rec := do(t, router, "PUT", "/profile/emitter", token, map[string]string{
		"description": "New description",
		"tax_number":  "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var stored models.Emitter
	require.NoError(t, db.First(&stored, em.ID).Error)
	require.Empty(t, stored.Description)
}

func TestUpdateFinancials(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, em, token := setup(t, db)

	rec := do(t, router, "PUT", "/profile/emitter/financials", token, map[string]interface{}{
		"ticker":     "ACME",
		"market":     "OTC",
		"market_cap": 1500.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.FinancialData
	require.NoError(t, db.Where("emitter_id = ?", em.ID).First(&stored).Error)
	require.Equal(t, "ACME", stored.Ticker)
	require.NotNil(t, stored.MarketCap)
	require.Equal(t, 1500.5, *stored.MarketCap)
	require.Equal(t, "Inactive", stored.CompanyStatus)
}

func TestSubmitForReviewKeepsRejectionReason(t *testing.T) {
	db := testutil.NewTestDB(t)
	router, em, token := setup(t, db)

	reason := "Missing registration documents"
	require.NoError(t, db.Model(em).Updates(map[string]interface{}{
		"status":           models.StatusRejected,
		"rejection_reason": reason,
	}).Error)

	rec := do(t, router, "POST", "/profile/emitter/submit-for-review", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Emitter
	require.NoError(t, db.First(&stored, em.ID).Error)
	require.Equal(t, models.StatusPending, stored.Status)
	require.NotNil(t, stored.RejectionReason)
	require.Equal(t, reason, *stored.RejectionReason)
}
