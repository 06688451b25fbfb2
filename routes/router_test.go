package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"civicreport-be/controllers"
	"civicreport-be/repository"
	"civicreport-be/services"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memObjects struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memObjects) Put(_ context.Context, key string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memObjects) URL(key string) string { return "https://cdn.example.com/" + key }

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	tokens, err := utils.NewTokenManager("router-test-secret-123", time.Hour)
	require.NoError(t, err)

	users := repository.NewMemoryUserStore()
	issues := repository.NewMemoryIssueStore()
	validate := services.NewValidator()
	logger := zerolog.Nop()

	auth := services.NewAuthService(users, tokens, utils.NewPasswordHasher(bcrypt.MinCost), validate, logger)
	r := NewRouter(RouterConfig{
		Auth:        &controllers.AuthController{Auth: auth},
		Issues:      &controllers.IssueController{Issues: services.NewIssueService(issues, users, validate, nil, logger)},
		Images:      &controllers.ImageController{Images: services.NewImageService(&memObjects{keys: map[string]bool{}}, logger)},
		Verifier:    auth,
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return &apiClient{t: t, router: r}
}

func (a *apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *apiClient) list(path, token string) (*httptest.ResponseRecorder, []map[string]any) {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out []map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *apiClient) signup(email, phone string) (token, id string) {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "A", "email": email, "phone": phone, "password": "secret1",
		"address": "12 Main Road", "landmark": "Near the park",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func issueBody(images ...string) map[string]any {
	if images == nil {
		images = []string{}
	}
	return map[string]any{
		"title":            "Streetlight out",
		"description":      "Dark stretch near the school",
		"priority":         "medium",
		"concernAuthority": "Electricity Board",
		"reporter":         "A",
		"comments":         []string{},
		"images":           images,
		"tags":             []string{"lighting"},
		"colony":           "Sector 5",
		"pincode":          "110001",
		"location":         map[string]any{"type": "Point", "coordinates": []float64{77.209, 28.6139}},
	}
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", body["message"])

	w, _ = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupAndLoginScenario(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "A", "email": "a@x.com", "phone": "9999999999", "password": "secret1",
		"address": "12 Main Road", "landmark": "Near the park",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, w.Body.String(), "password")
	userID := body["user"].(map[string]any)["id"]

	w, body = api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"emailOrPhone": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])
	token := body["token"].(string)

	w, body = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Near the park", body["user"].(map[string]any)["landmark"])
	assert.NotContains(t, w.Body.String(), "password")

	w, body = api.do(http.MethodPut, "/api/auth/update", token, map[string]any{"address": "7 Lake View"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7 Lake View", body["user"].(map[string]any)["address"])

	w, body = api.do(http.MethodPut, "/api/auth/update", token, map[string]any{"phone": "1111111111"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "validation_error", body["error"])
}

func TestAuthErrors(t *testing.T) {
	api := newTestAPI(t)
	api.signup("a@x.com", "9999999999")

	w, body := api.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "B", "email": "a@x.com", "phone": "8888888888", "password": "secret1",
		"address": "x", "landmark": "y",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", body["error"])

	w, body = api.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "B", "email": "b@x.com", "phone": "12345", "password": "secret1",
		"address": "x", "landmark": "y",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone", body["field"])

	w, wrong := api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"emailOrPhone": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, unknown := api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"emailOrPhone": "q@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrong, unknown)

	w, _ = api.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("a@x.com", "9999999999")
	other, _ := api.signup("b@x.com", "8888888888")

	w, _ := api.do(http.MethodPost, "/api/issues", "", issueBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodPost, "/api/issues", token, issueBody("1", "2", "3", "4"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, issues := api.list("/api/issues", "")
	assert.Empty(t, issues, "a rejected issue is not stored")

	w, body := api.do(http.MethodPost, "/api/issues", token, issueBody("https://cdn.example.com/images/a.png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Issue created successfully", body["message"])
	created := body["issue"].(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, "open", created["status"])

	w, issues = api.list("/api/issues", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, issues, 1)
	for _, field := range []string{"title", "description", "priority", "concernAuthority", "colony", "pincode", "images", "tags", "location"} {
		assert.Equal(t, created[field], issues[0][field], field)
	}
	assert.NotContains(t, w.Body.String(), `"users"`, "the upvoting users are never exposed")

	for i := 0; i < 2; i++ {
		w, body = api.do(http.MethodPost, "/api/issues/"+id+"/upvote", other, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), body["upvoteCount"])
		assert.Equal(t, true, body["hasUpvoted"])
	}

	w, body = api.do(http.MethodGet, "/api/issues/"+id+"/upvote-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["hasUpvoted"])
	assert.Equal(t, float64(1), body["upvoteCount"])

	_, issues = api.list("/api/issues?sort=supported", other)
	assert.Equal(t, true, issues[0]["hasUpvoted"])

	w, body = api.do(http.MethodPost, "/api/issues/"+id+"/remove-upvote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["upvoteCount"], "removing an absent upvote changes nothing")

	w, _ = api.do(http.MethodPost, "/api/issues/"+id+"/upvote", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodPatch, "/api/issues/"+id+"/status", other, map[string]any{"status": "in-progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = api.do(http.MethodPatch, "/api/issues/"+id+"/status", token, map[string]any{"status": "complete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, body = api.do(http.MethodPatch, "/api/issues/"+id+"/status", token, map[string]any{"status": "in-progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "in-progress", body["issue"].(map[string]any)["status"])

	w, body = api.do(http.MethodGet, "/api/issues/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Streetlight out", body["title"])

	w, issues = api.list("/api/issues/mine", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, issues, 1)
	_, issues = api.list("/api/issues/mine", other)
	assert.Empty(t, issues)

	w, body = api.do(http.MethodGet, "/api/issues/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["totalIssues"])
}

func TestIssueQueries(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("a@x.com", "9999999999")
	w, _ := api.do(http.MethodPost, "/api/issues", token, issueBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w, issues := api.list("/api/issues/by-address?colony=Sector%205&pincode=110001", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, issues, 1)

	w, _ = api.list("/api/issues/by-address?colony=Sector%209&pincode=110001", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.list("/api/issues/by-address?colony=Sector%205", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, issues = api.list("/api/issues/nearby?longitude=77.209&latitude=28.62&radius=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "distanceKm")

	w, _ = api.list("/api/issues/nearby?longitude=0&latitude=0&radius=1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.list("/api/issues/nearby?longitude=77.209&latitude=28.62", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.list("/api/issues/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = api.list("/api/issues/65f000000000000000000000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("a@x.com", "9999999999")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("images", "pothole.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Len(t, uploaded, 1)
	key := uploaded[0]["key"]
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.Equal(t, "https://cdn.example.com/"+key, uploaded[0]["url"])

	w2, _ := api.do(http.MethodDelete, "/api/images/"+key, token, nil)
	assert.Equal(t, http.StatusOK, w2.Code)
	w2, _ = api.do(http.MethodDelete, "/api/images/"+key, token, nil)
	assert.Equal(t, http.StatusOK, w2.Code, "deleting a missing image succeeds")
	w2, _ = api.do(http.MethodDelete, "/api/images/avatars/me.png", token, nil)
	assert.Equal(t, http.StatusBadRequest, w2.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/images", nil)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
