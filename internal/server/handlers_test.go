package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return NewServer(Config{
		CORSOrigin:         "*",
		MaxBodyMB:          10,
		NMSIoUThreshold:    0.5,
		NMSSoftSigma:       0.5,
		NMSSoftScoreThresh: 0.001,
	})
}

func TestServerAddr(t *testing.T) {
	s := NewServer(Config{Host: "localhost", Port: 9090})
	assert.Equal(t, "localhost:9090", s.Addr())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVersionHandler(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	s.versionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[VersionResponse](t, rec)
	assert.NotEmpty(t, resp.Version)
	assert.Contains(t, resp.BuildInfo, "nextcv")
}

func TestNMSHandler(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes: [][]float32{
			{10, 10, 60, 60},
			{15, 15, 60, 60},
			{100, 100, 130, 130},
			{20, 20, 60, 60},
		},
		Scores: []float32{0.9, 0.8, 0.7, 0.6},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[NMSResponse](t, rec)
	assert.Equal(t, []int{0, 2}, resp.Keep)
	assert.Equal(t, 2, resp.Count)
}

func TestNMSHandlerCustomThreshold(t *testing.T) {
	s := newTestServer()
	th := float32(0.99)
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:        [][]float32{{10, 10, 60, 60}, {15, 15, 60, 60}},
		Scores:       []float32{0.9, 0.8},
		IoUThreshold: &th,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[NMSResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
}

func TestNMSHandlerLengthMismatchPermissive(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:  [][]float32{{0, 0, 10, 10}},
		Scores: []float32{0.9, 0.8},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[NMSResponse](t, rec)
	assert.Equal(t, 0, resp.Count)
}

func TestNMSHandlerLengthMismatchStrict(t *testing.T) {
	s := newTestServer()
	strict := true
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:  [][]float32{{0, 0, 10, 10}},
		Scores: []float32{0.9, 0.8},
		Strict: &strict,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNMSHandlerSoftHard(t *testing.T) {
	s := newTestServer()
	soft := true
	method := "hard"
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes: [][]float32{
			{10, 10, 60, 60},
			{15, 15, 60, 60},
			{100, 100, 130, 130},
			{20, 20, 60, 60},
		},
		Scores:     []float32{0.9, 0.8, 0.7, 0.6},
		Soft:       &soft,
		SoftMethod: &method,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[NMSResponse](t, rec)
	// Hard decay matches greedy suppression: the two survivors keep
	// their original scores.
	require.Len(t, resp.Detections, 2)
	assert.Empty(t, resp.Keep)
	assert.InDelta(t, 0.9, resp.Detections[0].Score, 1e-6)
	assert.InDelta(t, 0.7, resp.Detections[1].Score, 1e-6)
	assert.Equal(t, 2, resp.Count)
}

func TestNMSHandlerSoftLinearDecaysScores(t *testing.T) {
	s := newTestServer()
	soft := true
	method := "linear"
	scoreThresh := float32(0.1)
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:           [][]float32{{0, 0, 10, 10}, {1, 1, 9, 9}},
		Scores:          []float32{0.9, 0.8},
		Soft:            &soft,
		SoftMethod:      &method,
		SoftScoreThresh: &scoreThresh,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[NMSResponse](t, rec)
	require.Len(t, resp.Detections, 2)
	assert.InDelta(t, 0.9, resp.Detections[0].Score, 1e-6)
	// IoU(A, B) = 64/100, so score 0.8 decays to 0.8*(1-0.64).
	assert.InDelta(t, 0.288, resp.Detections[1].Score, 1e-4)
}

func TestNMSHandlerSoftBadMethod(t *testing.T) {
	s := newTestServer()
	soft := true
	method := "sigmoid"
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:      [][]float32{{0, 0, 10, 10}},
		Scores:     []float32{0.9},
		Soft:       &soft,
		SoftMethod: &method,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNMSHandlerSoftLengthMismatch(t *testing.T) {
	s := newTestServer()
	soft := true
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:  [][]float32{{0, 0, 10, 10}},
		Scores: []float32{0.9, 0.8},
		Soft:   &soft,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNMSHandlerBadBox(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.nmsHandler, "/nms", NMSRequest{
		Boxes:  [][]float32{{0, 0, 10}},
		Scores: []float32{0.9},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNMSHandlerBadJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/nms", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.nmsHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvertHandler(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.invertHandler, "/image/invert", ImageRequest{
		Pixels: []int{0, 127, 255},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ImageResponse](t, rec)
	assert.Equal(t, []int{255, 128, 0}, resp.Pixels)
}

func TestInvertHandlerPixelOutOfRange(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.invertHandler, "/image/invert", ImageRequest{
		Pixels: []int{0, 300},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvertHandlerShapeMismatch(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.invertHandler, "/image/invert", ImageRequest{
		Pixels: []int{0, 1, 2},
		Width:  2,
		Height: 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThresholdHandler(t *testing.T) {
	s := newTestServer()
	thresh := uint8(100)
	maxValue := uint8(1)
	rec := postJSON(t, s.thresholdHandler, "/image/threshold", ImageRequest{
		Pixels:         []int{0, 100, 101, 255},
		ThresholdValue: &thresh,
		MaxValue:       &maxValue,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ImageResponse](t, rec)
	assert.Equal(t, []int{0, 0, 1, 1}, resp.Pixels)
}

func TestMatVecHandler(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.matvecHandler, "/linalg/matvec", MatVecRequest{
		Matrix: [][]float64{{1, 2}, {3, 4}},
		Vector: []float64{1, 1},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[MatVecResponse](t, rec)
	assert.Equal(t, []float64{3, 7}, resp.Result)
}

func TestMatVecHandlerRaggedMatrix(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.matvecHandler, "/linalg/matvec", MatVecRequest{
		Matrix: [][]float64{{1, 2}, {3}},
		Vector: []float64{1, 1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatVecHandlerShapeMismatch(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.matvecHandler, "/linalg/matvec", MatVecRequest{
		Matrix: [][]float64{{1, 2}, {3, 4}},
		Vector: []float64{1, 1, 1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupRoutes(t *testing.T) {
	s := newTestServer()
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer()
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	req := httptest.NewRequest(http.MethodOptions, "/nms", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
