package disruption

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/middleware"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models/modelstest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter mounts the handler behind a middleware that installs sess,
// or nothing when sess is nil.
func newTestRouter(t *testing.T, sess *models.Session) *gin.Engine {
	svc, _ := newTestService(t)
	r := gin.New()
	withSession := func(c *gin.Context) {
		if sess != nil {
			c.Set(middleware.ContextKeySession, sess)
		}
		c.Next()
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"), withSession)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeDisruption(t *testing.T, w *httptest.ResponseRecorder) models.Disruption {
	t.Helper()
	var d models.Disruption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d), w.Body.String())
	return d
}

func createViaHTTP(t *testing.T, r http.Handler) models.Disruption {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/disruptions", modelstest.Info(""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeDisruption(t, w)
}

func TestHandler_RequiresSession(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/disruptions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_CreateAndGet(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(true))
	created := createViaHTTP(t, r)
	assert.Equal(t, models.PublishStatusDraft, created.PublishStatus)

	w := do(t, r, http.MethodGet, "/api/disruptions/"+created.DisruptionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeDisruption(t, w)
	assert.Equal(t, created.DisruptionID, got.DisruptionID)
	assert.Equal(t, created.Summary, got.Summary)

	w = do(t, r, http.MethodGet, "/api/templates/"+created.DisruptionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(false))
	d := createViaHTTP(t, r)
	base := "/api/disruptions/" + d.DisruptionID

	t.Run("unknown disruption", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/disruptions/8d2cfcc4-0a4f-4c43-9a4e-4f1a1c1d2e3f", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("bad index", func(t *testing.T) {
		for _, idx := range []string{"x", "-1"} {
			w := do(t, r, http.MethodPut, base+"/consequences/"+idx, modelstest.NetworkConsequence("", 0))
			assert.Equal(t, http.StatusBadRequest, w.Code, idx)
		}
	})
	t.Run("invalid consequence", func(t *testing.T) {
		c := modelstest.NetworkConsequence("", 0)
		c.Description = ""
		w := do(t, r, http.MethodPut, base+"/consequences/0", c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("publish without consequences", func(t *testing.T) {
		w := do(t, r, http.MethodPost, base+"/publish", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
	t.Run("approve without review rights", func(t *testing.T) {
		w := do(t, r, http.MethodPost, base+"/approve", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
	t.Run("bad page token", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/disruptions?pageToken=not-a-token", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_ConsequenceLimit(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(true))
	d := createViaHTTP(t, r)
	base := "/api/disruptions/" + d.DisruptionID

	for i := 0; i < models.MaxConsequences; i++ {
		w := do(t, r, http.MethodPut, fmt.Sprintf("%s/consequences/%d", base, i), modelstest.NetworkConsequence("", 0))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := do(t, r, http.MethodPut, fmt.Sprintf("%s/consequences/%d", base, models.MaxConsequences), modelstest.NetworkConsequence("", 0))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPut, base+"/consequences/3", modelstest.StopsConsequence("", 0))
	require.Equal(t, http.StatusOK, w.Code, "replacing an existing index is not an addition")
	got := decodeDisruption(t, w)
	assert.Equal(t, models.ConsequenceStops, got.Consequences[3].ConsequenceType)
}

func TestHandler_PublishFlow(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(true))
	d := createViaHTTP(t, r)
	base := "/api/disruptions/" + d.DisruptionID

	w := do(t, r, http.MethodPut, base+"/consequences/0", modelstest.NetworkConsequence("", 0))
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPut, base+"/social-media-posts/0", modelstest.SocialMediaPost("", 0))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, base+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PublishStatusPublished, decodeDisruption(t, w).PublishStatus)

	w = do(t, r, http.MethodDelete, base+"/social-media-posts/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PublishStatusEditing, decodeDisruption(t, w).PublishStatus)

	w = do(t, r, http.MethodPost, base+"/publish-edit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	published := decodeDisruption(t, w)
	assert.Equal(t, models.PublishStatusPublished, published.PublishStatus)
	assert.Empty(t, published.SocialMediaPosts)

	w = do(t, r, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Data []models.History `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Data, 1)
	assert.Equal(t, []string{historyCreatedAndPublished}, history.Data[0].HistoryItems)

	w = do(t, r, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListPages(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(true))
	for i := 0; i < 3; i++ {
		createViaHTTP(t, r)
	}

	type page struct {
		Data      []models.Disruption `json:"data"`
		NextToken string              `json:"nextToken"`
	}
	var first page
	w := do(t, r, http.MethodGet, "/api/disruptions?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Len(t, first.Data, 2)
	require.NotEmpty(t, first.NextToken)

	var second page
	w = do(t, r, http.MethodGet, "/api/disruptions?limit=2&pageToken="+url.QueryEscape(first.NextToken), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Len(t, second.Data, 1)
	assert.Empty(t, second.NextToken)
}

func TestHandler_InstantiateTemplate(t *testing.T) {
	r := newTestRouter(t, modelstest.Session(false))
	w := do(t, r, http.MethodPost, "/api/templates", modelstest.Info(""))
	require.Equal(t, http.StatusCreated, w.Code)
	tpl := decodeDisruption(t, w)
	assert.True(t, tpl.Template)

	w = do(t, r, http.MethodPost, "/api/templates/"+tpl.DisruptionID+"/instantiate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decodeDisruption(t, w)
	assert.NotEqual(t, tpl.DisruptionID, d.DisruptionID)

	w = do(t, r, http.MethodGet, "/api/disruptions/"+d.DisruptionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
