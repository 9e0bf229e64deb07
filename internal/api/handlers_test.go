package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"survey-stats/internal/analysis"
	"survey-stats/internal/config"
	"survey-stats/internal/models"
	"survey-stats/internal/service"
	"survey-stats/internal/state"
)

const beliefHeader = "Paying with the brand's internal payment is more secure than external BNPL"

type fakeSource struct {
	connected  config.PostgresConfig
	connectErr error
	tables     []string
	frame      *state.DataFrame
	loaded     string
	limit      int
	closed     bool
}

func (f *fakeSource) Connect(ctx context.Context, cfg config.PostgresConfig) error {
	f.connected = cfg
	return f.connectErr
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSource) ListTables(ctx context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeSource) LoadTable(ctx context.Context, table string, limit int) (*state.DataFrame, error) {
	f.loaded, f.limit = table, limit
	for _, t := range f.tables {
		if t == table {
			return f.frame, nil
		}
	}
	return nil, fmt.Errorf("table %q: %w", table, analysis.ErrUnknownTable)
}

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	cfg := config.DefaultConfig()
	svc := service.NewHypothesisService(zap.NewNop(), cfg.Analysis)
	h := NewHandler(cfg, svc, &state.AppState{}, zap.NewNop())
	return h, NewRouter(cfg.Server, zap.NewNop(), h)
}

// surveyCSV has ten respondents whose trust rises with their belief score.
func surveyCSV() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Age,%s,I trust the brand\n", beliefHeader)
	trust := []int{2, 1, 4, 3, 7, 5, 6, 9, 10, 8}
	for i, v := range trust {
		fmt.Fprintf(&b, "18 -28,%d,%d\n", i+1, v)
	}
	return b.String()
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthAndRoot(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDatasetEmpty(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.DatasetStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.Loaded)

	for _, path := range []string{"/api/preview", "/api/profile", "/api/reports/h1", "/api/reports/h2"} {
		rec := do(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusConflict, rec.Code, path)
		assert.Equal(t, "No dataset loaded", decodeError(t, rec).Error, path)
	}
}

func TestUploadAndReports(t *testing.T) {
	h, router := newTestServer(t)

	rec := do(router, uploadRequest(t, "survey.csv", surveyCSV()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up models.UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&up))
	assert.Equal(t, 10, up.Rows)
	assert.Equal(t, 3, up.Columns)
	assert.Equal(t, "survey.csv", h.State.GetDataFrame().FileName)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	var status models.DatasetStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Loaded)
	assert.Equal(t, 10, status.Rows)
	assert.Equal(t, "survey.csv", status.Filename)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/reports/h1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report models.H1Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "survey.csv", report.Dataset)
	require.NotEmpty(t, report.Correlations)
	assert.Equal(t, 10, report.Correlations[0].N)
	assert.InDelta(t, 0.9030303030303031, report.Correlations[0].Rho.Float(), 1e-9)

	// No exclusivity items in this survey.
	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/reports/h2", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decodeError(t, rec)
	assert.Contains(t, errResp.Error, "could not find")
	assert.NotEmpty(t, errResp.Suggestions)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(router, uploadRequest(t, "survey.pdf", "%PDF"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = do(router, uploadRequest(t, "empty.csv", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec = do(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewLimit(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, do(router, uploadRequest(t, "survey.csv", surveyCSV())).Code)

	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=3", 3},
		{"?limit=abc", 10},
		{"?limit=-1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(router, httptest.NewRequest(http.MethodGet, "/api/preview"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			var resp models.PreviewResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, 10, resp.Rows)
			assert.Len(t, resp.Data, tt.want)
		})
	}

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/preview?limit=1", nil))
	var resp models.PreviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "18 -28", resp.Data[0]["Age"])
	assert.Equal(t, "2", resp.Data[0]["I trust the brand"])
}

func TestProfile(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, do(router, uploadRequest(t, "survey.csv", surveyCSV())).Code)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var profile analysis.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, 10, profile.Rows)
	assert.Len(t, profile.Columns, 3)
	assert.Equal(t, beliefHeader, profile.BeliefColumn)
}

func TestDatabaseFlow(t *testing.T) {
	h, router := newTestServer(t)
	src := &fakeSource{
		tables: []string{"responses"},
		frame:  state.NewDataFrame([]string{"Age", "Financial_Stability"}, [][]string{{"18 -28", "1"}, {"29 - 44", "0"}}),
	}
	h.NewSource = func() analysis.DataSource { return src }

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/db/tables", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"host":"db","port":5432,"user":"survey","password":"x","dbname":"survey","sslmode":"disable"}`
	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "db", src.connected.Host)
	assert.Equal(t, 5432, src.connected.Port)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/db/tables", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tables":["responses"]}`, rec.Body.String())

	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/db/load", strings.NewReader(`{"table_name":"responses"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "responses", src.loaded)
	assert.Equal(t, config.DefaultConfig().Data.Postgres.Limit, src.limit)
	assert.Equal(t, 2, h.State.GetDataFrame().NumRows())

	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/db/load", strings.NewReader(`{"table_name":"users","limit":5}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 5, src.limit)

	require.NoError(t, h.Close())
	assert.True(t, src.closed)
}

func TestConnectFailureKeepsPreviousConnection(t *testing.T) {
	h, router := newTestServer(t)
	prev := &fakeSource{}
	h.CurrentDB = prev
	h.NewSource = func() analysis.DataSource {
		return &fakeSource{connectErr: errors.New("connection refused")}
	}

	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader(`{"host":"db"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "connection refused")
	assert.Same(t, prev, h.currentDB())
	assert.False(t, prev.closed)

	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports/h1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := do(router, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
