package server

import (
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextcv/nextcv/internal/postprocess"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	MaxBodyMB  int64

	// Defaults applied when a request omits the corresponding field.
	NMSIoUThreshold    float32
	NMSStrict          bool
	NMSSoftMethod      string
	NMSSoftSigma       float32
	NMSSoftScoreThresh float32
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	host               string
	port               int
	corsOrigin         string
	maxBodyBytes       int64
	nmsIoUThreshold    float32
	nmsStrict          bool
	nmsSoftMethod      string
	nmsSoftSigma       float32
	nmsSoftScoreThresh float32
}

// NewServer creates a new nextcv API server instance.
func NewServer(config Config) *Server {
	if config.MaxBodyMB <= 0 {
		config.MaxBodyMB = 50
	}
	if config.NMSSoftMethod == "" {
		config.NMSSoftMethod = postprocess.SoftNMSGaussian
	}
	return &Server{
		host:               config.Host,
		port:               config.Port,
		corsOrigin:         config.CORSOrigin,
		maxBodyBytes:       config.MaxBodyMB * 1024 * 1024,
		nmsIoUThreshold:    config.NMSIoUThreshold,
		nmsStrict:          config.NMSStrict,
		nmsSoftMethod:      config.NMSSoftMethod,
		nmsSoftSigma:       config.NMSSoftSigma,
		nmsSoftScoreThresh: config.NMSSoftScoreThresh,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/version", s.corsMiddleware(s.versionHandler))
	mux.HandleFunc("/nms", s.corsMiddleware(s.nmsHandler))
	mux.HandleFunc("/nms/stream", s.nmsWebSocketHandler)
	mux.HandleFunc("/image/invert", s.corsMiddleware(s.invertHandler))
	mux.HandleFunc("/image/threshold", s.corsMiddleware(s.thresholdHandler))
	mux.HandleFunc("/linalg/matvec", s.corsMiddleware(s.matvecHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// VersionResponse is returned by the version endpoint.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildInfo string `json:"build_info"`
}

// NMSRequest carries parallel box and score arrays plus the IoU cutoff.
// Boxes are [x1, y1, x2, y2] quadruples. Setting soft switches to Soft-NMS
// score decay; the soft_* fields override the server defaults.
type NMSRequest struct {
	Boxes        [][]float32 `json:"boxes"`
	Scores       []float32   `json:"scores"`
	IoUThreshold *float32    `json:"iou_threshold,omitempty"`
	Strict       *bool       `json:"strict,omitempty"`

	Soft            *bool    `json:"soft,omitempty"`
	SoftMethod      *string  `json:"soft_method,omitempty"`
	SoftSigma       *float32 `json:"soft_sigma,omitempty"`
	SoftScoreThresh *float32 `json:"soft_score_thresh,omitempty"`
}

// NMSResponse lists the kept input indices in descending-score order.
// Soft-NMS requests return the surviving detections with decayed scores
// instead of indices.
type NMSResponse struct {
	Keep       []int                   `json:"keep,omitempty"`
	Detections []postprocess.Detection `json:"detections,omitempty"`
	Count      int                     `json:"count"`
}

// ImageRequest carries a flat 8-bit pixel buffer. Width and height are
// optional; when both are set the buffer shape is validated against them.
type ImageRequest struct {
	Pixels         []int  `json:"pixels"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	ThresholdValue *uint8 `json:"threshold_value,omitempty"`
	MaxValue       *uint8 `json:"max_value,omitempty"`
}

// ImageResponse carries the transformed pixel buffer.
type ImageResponse struct {
	Pixels []int `json:"pixels"`
}

// MatVecRequest carries a dense matrix (rows of equal length) and a vector.
type MatVecRequest struct {
	Matrix [][]float64 `json:"matrix"`
	Vector []float64   `json:"vector"`
}

// MatVecResponse carries the matrix-vector product.
type MatVecResponse struct {
	Result []float64 `json:"result"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
