package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
)

func TestProgressAPI(t *testing.T) {
	service, remote := newTestService()
	router := NewRouter(RouterConfig{Progress: NewProgressHandler(remote, service), AdminToken: "s3cret"})

	rec := do(t, router, http.MethodGet, "/api/progress/quiz-1", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, rec.Body.String())

	body := []byte(`{"experience":25,"tools":["Logs"],"questionHistory":[{"scenarioId":"q-1","selectedIndex":1,"selectedAnswer":{"text":"Attach a debugger","experience":10}}]}`)
	rec = do(t, router, http.MethodPut, "/api/progress/quiz-1", "alice", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"progress saved"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/progress/quiz-1", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Success bool                    `json:"success"`
		Data    domain.ProgressSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 25, got.Data.Experience)
	assert.Equal(t, "alice", got.Data.User)
	assert.Len(t, got.Data.QuestionHistory, 1)

	// other players cannot see it
	rec = do(t, router, http.MethodGet, "/api/progress/quiz-1", "bob", nil)
	assert.JSONEq(t, `{"success":true,"data":null}`, rec.Body.String())

	rec = do(t, router, http.MethodDelete, "/api/admin/progress/alice/quiz-1", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/progress/alice/quiz-1", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := remote.GetProgress(context.Background(), domain.ProgressKey{User: "alice", QuizID: "quiz-1"})
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
}

func TestProgressAPIRequiresIdentity(t *testing.T) {
	service, remote := newTestService()
	router := NewRouter(RouterConfig{Progress: NewProgressHandler(remote, service)})

	rec := do(t, router, http.MethodGet, "/api/progress/quiz-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestProgressAPIRejectsNonObject(t *testing.T) {
	service, remote := newTestService()
	router := NewRouter(RouterConfig{Progress: NewProgressHandler(remote, service)})

	rec := do(t, router, http.MethodPut, "/api/progress/quiz-1", "alice", []byte(`[1,2]`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetOwnProgress(t *testing.T) {
	service, remote := newTestService()
	router := NewRouter(RouterConfig{Progress: NewProgressHandler(remote, service)})
	key := domain.ProgressKey{User: "alice", QuizID: "quiz-1"}
	require.NoError(t, remote.SaveProgress(context.Background(), key, []byte(`{"experience":5}`)))

	rec := do(t, router, http.MethodDelete, "/api/progress/quiz-1", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := remote.GetProgress(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
}

func TestHealthAndMetrics(t *testing.T) {
	router := NewRouter(RouterConfig{})
	rec := do(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func do(t *testing.T, h http.Handler, method, path, user string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
