package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookout/internal/articles"
	"lookout/internal/briefing"
	"lookout/internal/profiles"
	"lookout/pkg/logging"
)

type fakeService struct {
	runOpts    *briefing.RunOptions
	runSummary *briefing.RunSummary
	runErr     error
	previewDoc string
	previewErr error
}

func (s *fakeService) Run(_ context.Context, opts briefing.RunOptions) (*briefing.RunSummary, error) {
	s.runOpts = &opts
	return s.runSummary, s.runErr
}

func (s *fakeService) Preview(_ context.Context, _ string) (string, error) {
	return s.previewDoc, s.previewErr
}

func (s *fakeService) LastRun() *briefing.RunInfo { return nil }

type fakeStore struct {
	users []profiles.UserProfile
	err   error
}

func (s *fakeStore) List() ([]profiles.UserProfile, error) { return s.users, s.err }

func setupRouter(service BriefingService, store ProfileReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandlers(service, store, logging.NewLogger()).RegisterRoutes(router)
	return router
}

func TestGenerate_AllUsers(t *testing.T) {
	service := &fakeService{
		runSummary: &briefing.RunSummary{UsersProcessed: 3, Successful: 2, Failed: 1},
	}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	assert.Equal(t, 3, resp.UsersProcessed)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
}

func TestGenerate_SingleUserBody(t *testing.T) {
	service := &fakeService{
		runSummary: &briefing.RunSummary{UsersProcessed: 1, Successful: 1},
	}
	router := setupRouter(service, &fakeStore{})

	body := `{"email":"a@example.com","send_email":false}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, service.runOpts)
	assert.Equal(t, "a@example.com", service.runOpts.Email)
	require.NotNil(t, service.runOpts.SendEmail)
	assert.False(t, *service.runOpts.SendEmail)
}

func TestGenerate_Conflict(t *testing.T) {
	service := &fakeService{runErr: briefing.ErrRunInProgress}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerate_UnknownUser(t *testing.T) {
	service := &fakeService{runErr: briefing.ErrUserNotFound}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"email":"x@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerate_ConnectorDown(t *testing.T) {
	service := &fakeService{runErr: &articles.FetchError{URL: "http://connector/articles", StatusCode: 500}}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerate_BadBody(t *testing.T) {
	router := setupRouter(&fakeService{}, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{notjson`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreview(t *testing.T) {
	service := &fakeService{previewDoc: "<html>briefing</html>"}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/preview/a@example.com", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>briefing</html>", w.Body.String())
}

func TestPreview_UnknownUser(t *testing.T) {
	service := &fakeService{previewErr: briefing.ErrUserNotFound}
	router := setupRouter(service, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/preview/x@example.com", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	store := &fakeStore{users: []profiles.UserProfile{
		{Email: "a@example.com", Name: "A", Topics: []string{"ai"}},
		{Email: "b@example.com", Name: "B", Topics: []string{"ml"}},
	}}
	router := setupRouter(&fakeService{}, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []profiles.UserProfile `json:"users"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Users, 2)
}

func TestListUsers_Empty(t *testing.T) {
	router := setupRouter(&fakeService{}, &fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users":[]`)
}
