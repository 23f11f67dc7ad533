package mood

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/zhouzirui/manasbridge/backend/internal/analysis/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	moodservice "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/storage/memory"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	r := chi.NewRouter()
	New(moodservice.NewService(store, nil), nil).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, target, strings.NewReader(body)))
	return resp
}

func TestRecordListChart(t *testing.T) {
	r := setupRouter(t)

	for _, m := range []string{"Happy", "Stressed", "Okay"} {
		resp := serve(r, http.MethodPost, "/moods", `{"mood":"`+m+`","note":"n"}`)
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := serve(r, http.MethodGet, "/moods?limit=2", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var entries []mood.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, mood.Okay, entries[0].Mood)
	assert.Equal(t, mood.Stressed, entries[1].Mood)

	resp = serve(r, http.MethodGet, "/moods/chart", "")
	var points []mood.ChartPoint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&points))
	require.Len(t, points, 3)
	assert.Equal(t, []int{5, 1, 4}, []int{points[0].Value, points[1].Value, points[2].Value})
}

func TestRecordRejectsInvalid(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/moods", `{"mood":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/moods?limit=-1", "").Code)
}

func TestListEmptyIsArray(t *testing.T) {
	resp := serve(setupRouter(t), http.MethodGet, "/moods", "")
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestSuggest(t *testing.T) {
	resp := serve(setupRouter(t), http.MethodGet, "/moods/suggest?text="+url.QueryEscape("so much exam pressure"), "")
	require.Equal(t, http.StatusOK, resp.Code)

	var s analysis.Suggestion
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, mood.Stressed, s.Mood)
}
