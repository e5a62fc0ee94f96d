package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nextcv/nextcv/internal/geometry"
	"github.com/nextcv/nextcv/internal/imageops"
	"github.com/nextcv/nextcv/internal/linalg"
	"github.com/nextcv/nextcv/internal/postprocess"
	"github.com/nextcv/nextcv/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// versionHandler returns build information.
func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	v, commit, date := version.Info()
	writeJSON(w, http.StatusOK, VersionResponse{
		Version:   v,
		GitCommit: commit,
		BuildDate: date,
		BuildInfo: version.BuildInfo(),
	})
}

// decodeJSONBody decodes a size-limited JSON request body.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// nmsHandler runs Non-Maximum Suppression over the posted detections.
func (s *Server) nmsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req NMSRequest
	if err := s.decodeJSONBody(w, r, &req); err != nil {
		opRequestsTotal.WithLabelValues("nms", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	boxes := make([]geometry.Box, 0, len(req.Boxes))
	for i, b := range req.Boxes {
		if len(b) != 4 {
			opRequestsTotal.WithLabelValues("nms", "error").Inc()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("box %d has %d coordinates, want 4", i, len(b)))
			return
		}
		boxes = append(boxes, geometry.Box{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]})
	}

	threshold := s.nmsIoUThreshold
	if req.IoUThreshold != nil {
		threshold = *req.IoUThreshold
	}
	strict := s.nmsStrict
	if req.Strict != nil {
		strict = *req.Strict
	}

	if req.Soft != nil && *req.Soft {
		s.softNMS(w, &req, boxes, threshold)
		return
	}

	var keep []int
	if strict {
		var err error
		keep, err = postprocess.NonMaxSuppressionStrict(boxes, req.Scores, threshold)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, postprocess.ErrLengthMismatch) {
				status = http.StatusBadRequest
			}
			opRequestsTotal.WithLabelValues("nms", "error").Inc()
			writeError(w, status, err.Error())
			return
		}
	} else {
		keep = postprocess.NonMaxSuppression(boxes, req.Scores, threshold)
	}

	opRequestsTotal.WithLabelValues("nms", "success").Inc()
	nmsInputBoxes.Observe(float64(len(boxes)))
	nmsKeptBoxes.Observe(float64(len(keep)))
	writeJSON(w, http.StatusOK, NMSResponse{Keep: keep, Count: len(keep)})
}

// softNMS handles the Soft-NMS variant of the nms endpoint: scores decay
// instead of hard suppression, and the surviving detections are returned.
func (s *Server) softNMS(w http.ResponseWriter, req *NMSRequest, boxes []geometry.Box, threshold float32) {
	if len(boxes) != len(req.Scores) {
		opRequestsTotal.WithLabelValues("nms", "error").Inc()
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("boxes and scores length mismatch: %d boxes, %d scores", len(boxes), len(req.Scores)))
		return
	}

	method := s.nmsSoftMethod
	if req.SoftMethod != nil {
		method = *req.SoftMethod
	}
	switch method {
	case postprocess.SoftNMSHard, postprocess.SoftNMSLinear, postprocess.SoftNMSGaussian:
	default:
		opRequestsTotal.WithLabelValues("nms", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid soft method %q", method))
		return
	}
	sigma := s.nmsSoftSigma
	if req.SoftSigma != nil {
		sigma = *req.SoftSigma
	}
	scoreThresh := s.nmsSoftScoreThresh
	if req.SoftScoreThresh != nil {
		scoreThresh = *req.SoftScoreThresh
	}

	dets := make([]postprocess.Detection, len(boxes))
	for i := range boxes {
		dets[i] = postprocess.Detection{Box: boxes[i], Score: req.Scores[i]}
	}
	kept := postprocess.SoftNonMaxSuppression(dets, method, threshold, sigma, scoreThresh)

	opRequestsTotal.WithLabelValues("nms", "success").Inc()
	nmsInputBoxes.Observe(float64(len(boxes)))
	nmsKeptBoxes.Observe(float64(len(kept)))
	writeJSON(w, http.StatusOK, NMSResponse{Detections: kept, Count: len(kept)})
}

// pixelsFromRequest validates and narrows the request pixel values.
func pixelsFromRequest(req *ImageRequest) ([]uint8, error) {
	pixels := make([]uint8, len(req.Pixels))
	for i, p := range req.Pixels {
		if p < 0 || p > 255 {
			return nil, fmt.Errorf("pixel %d out of range: %d", i, p)
		}
		pixels[i] = uint8(p)
	}
	if req.Width != 0 || req.Height != 0 {
		size := imageops.Size{Width: req.Width, Height: req.Height}
		if err := imageops.ValidateSize(pixels, size); err != nil {
			return nil, err
		}
	}
	return pixels, nil
}

func pixelsToResponse(pixels []uint8) ImageResponse {
	out := make([]int, len(pixels))
	for i, p := range pixels {
		out[i] = int(p)
	}
	return ImageResponse{Pixels: out}
}

// invertHandler inverts the posted pixel buffer.
func (s *Server) invertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ImageRequest
	if err := s.decodeJSONBody(w, r, &req); err != nil {
		opRequestsTotal.WithLabelValues("invert", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pixels, err := pixelsFromRequest(&req)
	if err != nil {
		opRequestsTotal.WithLabelValues("invert", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opRequestsTotal.WithLabelValues("invert", "success").Inc()
	writeJSON(w, http.StatusOK, pixelsToResponse(imageops.Invert(pixels)))
}

// thresholdHandler applies a binary threshold to the posted pixel buffer.
func (s *Server) thresholdHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ImageRequest
	if err := s.decodeJSONBody(w, r, &req); err != nil {
		opRequestsTotal.WithLabelValues("threshold", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pixels, err := pixelsFromRequest(&req)
	if err != nil {
		opRequestsTotal.WithLabelValues("threshold", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thresh := uint8(127)
	if req.ThresholdValue != nil {
		thresh = *req.ThresholdValue
	}
	maxValue := uint8(255)
	if req.MaxValue != nil {
		maxValue = *req.MaxValue
	}

	opRequestsTotal.WithLabelValues("threshold", "success").Inc()
	writeJSON(w, http.StatusOK, pixelsToResponse(imageops.Threshold(pixels, thresh, maxValue)))
}

// matvecHandler multiplies the posted matrix by the posted vector.
func (s *Server) matvecHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req MatVecRequest
	if err := s.decodeJSONBody(w, r, &req); err != nil {
		opRequestsTotal.WithLabelValues("matvec", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := len(req.Matrix)
	cols := 0
	if rows > 0 {
		cols = len(req.Matrix[0])
	}
	flat := make([]float64, 0, rows*cols)
	for i, row := range req.Matrix {
		if len(row) != cols {
			opRequestsTotal.WithLabelValues("matvec", "error").Inc()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("matrix row %d has %d columns, want %d", i, len(row), cols))
			return
		}
		flat = append(flat, row...)
	}

	result, err := linalg.MatVecFlat(flat, rows, cols, req.Vector)
	if err != nil {
		opRequestsTotal.WithLabelValues("matvec", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opRequestsTotal.WithLabelValues("matvec", "success").Inc()
	writeJSON(w, http.StatusOK, MatVecResponse{Result: result})
}
