package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/extrapoints/internal/export"
	"github.com/mmynk/extrapoints/internal/ledger"
	"github.com/mmynk/extrapoints/internal/metrics"
	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/service"
	"github.com/mmynk/extrapoints/internal/storage/storagetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(t *testing.T) (*gin.Engine, *storagetest.Fixture) {
	t.Helper()

	f := storagetest.New(t)
	f.Student(1, 101, "S1")
	f.AssignClass(101, 1)
	f.Teacher(1, 201, "T1")
	f.PointType(1, "TypeA", 5)
	f.PointType(2, "TypeB", 3)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.NewAwardService(f.DB, service.WithRecorder(m), service.WithLogger(quiet))

	r := NewRouter(NewHandler(svc), RouterConfig{
		Logger:   quiet,
		Store:    f.DB,
		Gatherer: reg,
		Observer: m,
	})
	return r, f
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAwardFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":1,"comments":"good job"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)
	assert.EqualValues(t, 5, first["total_extra_points"])

	w = do(t, r, http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":2,"comments":"again"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 8, decode(t, w)["total_extra_points"])

	awardID := int64(first["award_id"].(float64))
	w = do(t, r, http.MethodDelete, "/extra-points/1/extra-points/"+strconv.FormatInt(awardID, 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["total_extra_points"])

	w = do(t, r, http.MethodGet, "/extra-points", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.StudentTotal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].Total)

	w = do(t, r, http.MethodGet, "/extra-points/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	assert.EqualValues(t, 3, detail["total_extra_points"])
	assert.Equal(t, "T1", detail["teacher_name"])

	w = do(t, r, http.MethodPut, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":2,"comments":"fixed","points":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 10, decode(t, w)["total_extra_points"])

	w = do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `extrapoints_operations_total{operation="AwardPoints",outcome="ok",stage="done"} 2`)
	assert.Contains(t, w.Body.String(), `route="/extra-points/:studentId/extra-points"`)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		msg    string
	}{
		{"non-numeric student", http.MethodGet, "/extra-points/abc", "", http.StatusBadRequest, "Invalid studentId"},
		{"non-numeric award", http.MethodDelete, "/extra-points/1/extra-points/x", "", http.StatusBadRequest, "Invalid extraPointsId"},
		{"zero student", http.MethodGet, "/extra-points/0", "", http.StatusBadRequest, "Invalid studentId"},
		{"negative award", http.MethodDelete, "/extra-points/1/extra-points/-3", "", http.StatusBadRequest, "Invalid extraPointsId"},
		{"zero teacher in body", http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":0,"typeId":1}`, http.StatusBadRequest, "Invalid request"},
		{"malformed body", http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":`, http.StatusBadRequest, "Invalid request"},
		{"missing teacher", http.MethodPost, "/extra-points/1/extra-points", `{"typeId":1}`, http.StatusBadRequest, "Invalid request"},
		{"unknown student", http.MethodPost, "/extra-points/9/extra-points", `{"teacherId":1,"typeId":1}`, http.StatusNotFound, "Student not found"},
		{"unknown teacher", http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":9,"typeId":1}`, http.StatusNotFound, "Teacher not found"},
		{"unknown type", http.MethodPut, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":9}`, http.StatusNotFound, "Extra points type not found"},
		{"unknown award", http.MethodDelete, "/extra-points/1/extra-points/77", "", http.StatusNotFound, "Extra points not found"},
		{"student detail missing", http.MethodGet, "/extra-points/9", "", http.StatusNotFound, "Student not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, f := newTestRouter(t)

			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, tt.msg, decode(t, w)["error"])
			assert.Equal(t, 0, f.CountAwards())
		})
	}
}

func TestHealth(t *testing.T) {
	r, f := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, f.DB.Close())
	w = do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExportTotals(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":1}`).Code)

	w := do(t, r, http.MethodGet, "/export/extra-points.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "S1", "5"}, rows[1])
}

// stubService fails every call with err.
type stubService struct {
	err error
}

func (s stubService) AwardPoints(context.Context, service.AwardRequest) (*service.Outcome, error) {
	return nil, s.err
}

func (s stubService) ReviseAward(context.Context, service.RevisionRequest) (*service.Outcome, error) {
	return nil, s.err
}

func (s stubService) RemoveAward(context.Context, int64, int64) (*service.Outcome, error) {
	return nil, s.err
}

func (s stubService) ListStudentsWithTotals(context.Context) ([]models.StudentTotal, error) {
	return nil, s.err
}

func (s stubService) GetStudentDetail(context.Context, int64) (*models.StudentDetail, error) {
	return nil, s.err
}

func TestErrorMapping(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		want     int
		recorded bool
	}{
		{"aggregate", &ledger.AggregateError{StudentID: 1, Err: ledger.ReadError("sum totals", cause)}, http.StatusInternalServerError, true},
		{"write", &ledger.StoreError{Op: "insert award", Kind: ledger.ErrStoreWrite, Err: cause}, http.StatusInternalServerError, false},
		{"read", ledger.ReadError("find student", cause), http.StatusInternalServerError, false},
		{"class missing", &ledger.NotFoundError{Entity: ledger.EntityClassAssignment, ID: 101}, http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(NewHandler(stubService{err: tt.err}), RouterConfig{Logger: quiet})

			w := do(t, r, http.MethodPost, "/extra-points/1/extra-points", `{"teacherId":1,"typeId":1}`)
			assert.Equal(t, tt.want, w.Code)

			body := decode(t, w)
			if tt.recorded {
				assert.Equal(t, true, body["award_recorded"])
			} else {
				assert.NotContains(t, body, "award_recorded")
			}
		})
	}
}
