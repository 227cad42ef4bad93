// Package server exposes a trained flow model over HTTP: PNG sample
// grids, run status with the bpd history, and the build version.
package server

import (
	"bytes"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flowgen/flowgen/api"
	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/imggrid"
	"github.com/flowgen/flowgen/train"
	"github.com/flowgen/flowgen/version"
)

const maxSampleCount = 256

type Server struct {
	runID string

	// mu serializes access to the model: sampling mutates the
	// sub-network activation caches, so only one request may run the
	// flow at a time.
	mu      sync.Mutex
	model   *flow.Model
	history *train.History
	epochs  int
}

func New(model *flow.Model, history *train.History, epochs int) *Server {
	return &Server{
		runID:   uuid.New().String(),
		model:   model,
		history: history,
		epochs:  epochs,
	}
}

func (s *Server) Serve(ln net.Listener) error {
	r := gin.Default()

	r.GET("/api/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version})
	})

	r.GET("/api/status", s.status)
	r.POST("/api/sample", s.sample)

	slog.Info("listening", "addr", ln.Addr())

	srv := &http.Server{Handler: r}
	return srv.Serve(ln)
}

func (s *Server) status(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.model.Config()
	c.JSON(http.StatusOK, api.StatusResponse{
		RunID:     s.runID,
		Epochs:    s.epochs,
		Completed: len(s.history.Train),
		TrainBpd:  s.history.Train,
		ValBpd:    s.history.Val,
		Rows:      cfg.Rows,
		Cols:      cfg.Cols,
		Blocks:    cfg.Blocks,
		Hidden:    cfg.Hidden,
	})
}

func (s *Server) sample(c *gin.Context) {
	var req api.SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if req.Count <= 0 {
		req.Count = 25
	}
	if req.Count > maxSampleCount {
		c.JSON(http.StatusBadRequest, api.Error{
			Code:    http.StatusBadRequest,
			Message: "count exceeds maximum",
		})
		return
	}

	s.mu.Lock()
	samples := s.model.Sample(req.Count)
	cfg := s.model.Config()
	s.mu.Unlock()

	grid, err := imggrid.Render(samples, 5, cfg.Rows, cfg.Cols)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.Error{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}

	scaled := imggrid.Scale(grid, req.Scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		c.JSON(http.StatusInternalServerError, api.Error{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
