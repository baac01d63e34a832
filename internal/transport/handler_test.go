package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inspection-service/internal/config"
	apperrors "go-inspection-service/internal/errors"
	"go-inspection-service/pkg/models"
)

type stubService struct {
	calls int
	last  models.AnalysisRequest
	resp  *models.AnalysisResponse
	err   error
}

func (s *stubService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{MaxRequestBodySize: 1024}
}

func okResponse(jobID string) *models.AnalysisResponse {
	return &models.AnalysisResponse{
		JobID:         jobID,
		ExteriorScore: 82,
		EngineScore:   61,
		Issues:        []string{},
		Raw: models.RawOutput{
			ExteriorAnalysis: models.AnalysisOutcome{Score: 82, Issues: []string{}, Details: models.ExteriorDetails{}},
			EngineAnalysis:   models.AnalysisOutcome{Score: 61, Issues: []string{}, Details: models.VisualEngineDetails{}},
			Metadata:         models.Metadata{JobID: jobID, ImagesProcessed: 1},
		},
	}
}

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(&stubService{}, nil, testConfig())

	rec := doRequest(h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"car-inspection-analysis"}`, rec.Body.String())
}

func TestAnalyze_Success(t *testing.T) {
	svc := &stubService{resp: okResponse("job-1")}
	h := NewHandler(svc, nil, testConfig())

	rec := doRequest(h, http.MethodPost, "/analyze",
		`{"jobId":"job-1","imageUrls":["http://localhost:3001/a.jpg"],"audioUrl":"http://localhost:3001/clip.mp3"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "job-1", svc.last.JobID)
	assert.Equal(t, []string{"http://localhost:3001/a.jpg"}, svc.last.ImageURLs)
	assert.Equal(t, "http://localhost:3001/clip.mp3", svc.last.AudioURLOrEmpty())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "job-1", body["jobId"])
	assert.EqualValues(t, 82, body["exteriorScore"])
	assert.Contains(t, body, "raw")
}

func TestAnalyze_NullAudioAccepted(t *testing.T) {
	svc := &stubService{resp: okResponse("job-2")}
	h := NewHandler(svc, nil, testConfig())

	rec := doRequest(h, http.MethodPost, "/analyze", `{"jobId":"job-2","imageUrls":["u"],"audioUrl":null}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.last.AudioURLOrEmpty())
}

func TestAnalyze_InvalidBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":         `{"jobId":`,
		"empty body":       ``,
		"missing job":      `{"imageUrls":["u"]}`,
		"missing images":   `{"jobId":"j"}`,
		"empty images":     `{"jobId":"j","imageUrls":[]}`,
		"image not string": `{"jobId":"j","imageUrls":[1]}`,
		"audio wrong type": `{"jobId":"j","imageUrls":["u"],"audioUrl":5}`,
		"job wrong type":   `{"jobId":5,"imageUrls":["u"]}`,
		"array top level":  `[]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			svc := &stubService{}
			h := NewHandler(svc, nil, testConfig())

			rec := doRequest(h, http.MethodPost, "/analyze", body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, svc.calls)
			assert.Equal(t, "Bad Request", decodeError(t, rec).Error)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, nil, testConfig())

	big := `{"jobId":"` + strings.Repeat("x", 4096) + `","imageUrls":["u"]}`
	rec := doRequest(h, http.MethodPost, "/analyze", big, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "all resources failed",
			err:     apperrors.NewAllResourcesFailedError([]string{"a", "b"}),
			status:  http.StatusBadRequest,
			message: "Failed to download any images from 2 URLs.",
		},
		{
			name:    "timeout",
			err:     apperrors.NewTimeoutError("Request timeout. Analysis took too long.", context.DeadlineExceeded),
			status:  http.StatusGatewayTimeout,
			message: "Request timeout. Analysis took too long.",
		},
		{
			name:    "internal",
			err:     apperrors.NewInternalError("Analysis failed", errors.New("boom")),
			status:  http.StatusInternalServerError,
			message: "Analysis failed",
		},
		{
			name:    "plain error",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			message: "Analysis failed: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubService{err: tt.err}, nil, testConfig())

			rec := doRequest(h, http.MethodPost, "/analyze", `{"jobId":"j","imageUrls":["u"]}`, nil)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.Contains(t, body.Message, tt.message)
		})
	}
}

func TestAnalyze_CanceledByCaller(t *testing.T) {
	err := apperrors.NewCanceledError("Request canceled before analysis finished.", context.Canceled)
	h := NewHandler(&stubService{err: err}, nil, testConfig())

	rec := doRequest(h, http.MethodPost, "/analyze", `{"jobId":"j","imageUrls":["u"]}`, nil)

	assert.Equal(t, apperrors.StatusClientClosedRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Client Closed Request", body.Error)
	assert.Equal(t, "Request canceled before analysis finished.", body.Message)
}

func TestRequestID(t *testing.T) {
	h := NewHandler(&stubService{}, nil, testConfig())

	generated := doRequest(h, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, generated.Header().Get(requestIDHeader))

	echoed := doRequest(h, http.MethodGet, "/health", "", map[string]string{requestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", echoed.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	h := NewHandler(&stubService{}, nil, testConfig())

	preflight := doRequest(h, http.MethodOptions, "/analyze", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type",
	})
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "http://localhost:3000", preflight.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", preflight.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type", preflight.Header().Get("Access-Control-Allow-Headers"))

	plain := doRequest(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "*", plain.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "inspection_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := NewHandler(&stubService{}, reg, testConfig())
	rec := doRequest(h, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inspection_test_total 1")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := NewHandler(&stubService{}, nil, testConfig())

	rec := doRequest(h, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
