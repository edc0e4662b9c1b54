package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty/api/routes"
	"realty/db"
	"realty/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shards := make([]db.Shard, 0, 4)
	for i := 1; i <= 4; i++ {
		shards = append(shards, db.NewMemoryShard(fmt.Sprintf("properties_db%d", i)))
	}
	catalog := services.NewCatalog(shards, nil)
	auth := services.NewAuthService(db.NewMemoryUserStore(), services.NewMemoryTokenStore(), time.Hour)

	router := gin.New()
	routes.PublicApi(router, catalog, auth)
	return router
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "s3cret"}

	resp := doRequest(router, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func irvinePayload() map[string]interface{} {
	return map[string]interface{}{
		"address":        "14631 Deer Park St",
		"city":           "Irvine",
		"state":          "California",
		"zip_code":       92604,
		"price":          1688888,
		"bedrooms":       4,
		"bathrooms":      3.0,
		"square_footage": 2089,
		"type":           "sale",
		"date_listed":    "2024-04-01",
		"description":    "Charming downtown home",
		"images":         []string{},
	}
}

func TestAuthEndpoints(t *testing.T) {
	router := newTestRouter(t)
	creds := map[string]string{"username": "alice", "password": "s3cret"}

	resp := doRequest(router, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, resp.Code)

	resp = doRequest(router, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListingEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/v1/listings", "", irvinePayload())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(router, http.MethodGet, "/api/v1/listings/search?city=Irvine", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListingLifecycle(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice")
	bobToken := registerAndLogin(t, router, "bob")

	// Insert
	resp := doRequest(router, http.MethodPost, "/api/v1/listings", aliceToken, irvinePayload())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var receipt services.InsertReceipt
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &receipt))
	assert.Equal(t, "CAL-IRVI-14631DeerPark", receipt.CustomID)
	assert.True(t, receipt.Replicated)

	// Duplicate insert
	resp = doRequest(router, http.MethodPost, "/api/v1/listings", bobToken, irvinePayload())
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Search
	resp = doRequest(router, http.MethodGet, "/api/v1/listings/search?city=irvine&type=sale", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var search struct {
		Count   int `json:"count"`
		Results []struct {
			CustomID string   `json:"custom_id"`
			Price    float64  `json:"price"`
			SourceDB []string `json:"source_db"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &search))
	require.Equal(t, 1, search.Count)
	assert.Len(t, search.Results[0].SourceDB, 2)

	// Update by a non-creator
	update := map[string]interface{}{"updates": map[string]interface{}{"price": 675000}}
	resp = doRequest(router, http.MethodPatch, "/api/v1/listings/"+receipt.CustomID, bobToken, update)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Update by the creator
	resp = doRequest(router, http.MethodPatch, "/api/v1/listings/"+receipt.CustomID, aliceToken, update)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = doRequest(router, http.MethodGet, "/api/v1/listings/search?custom_id="+receipt.CustomID, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &search))
	require.Equal(t, 1, search.Count)
	assert.Equal(t, float64(675000), search.Results[0].Price)

	// Delete by a non-creator, then the creator
	resp = doRequest(router, http.MethodDelete, "/api/v1/listings/"+receipt.CustomID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doRequest(router, http.MethodDelete, "/api/v1/listings/"+receipt.CustomID, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodGet, "/api/v1/listings/search?custom_id="+receipt.CustomID, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &search))
	assert.Equal(t, 0, search.Count)
}

func TestInsertValidationResponse(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	resp := doRequest(router, http.MethodPost, "/api/v1/listings", token, map[string]interface{}{"type": "auction"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Greater(t, len(body.Fields), 3, "every invalid field is reported at once")
}

func TestExportEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	resp := doRequest(router, http.MethodPost, "/api/v1/listings", token, irvinePayload())
	require.Equal(t, http.StatusCreated, resp.Code)

	t.Run("CSV", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/api/v1/listings/export?format=csv&city=Irvine", token, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
		assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")

		lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
		assert.Len(t, lines, 2, "header plus one record")
		assert.Contains(t, lines[1], "CAL-IRVI-14631DeerPark")
	})

	t.Run("JSON", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/api/v1/listings/export?format=json&city=Irvine", token, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var listings []map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listings))
		require.Len(t, listings, 1)
		assert.Equal(t, "CAL-IRVI-14631DeerPark", listings[0]["custom_id"])
	})

	t.Run("BadFormat", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/api/v1/listings/export?format=xml", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
