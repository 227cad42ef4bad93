package api

import (
	"fmt"
	"net/http"
	"strings"
)

type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %v", e.Code, strings.ToLower(http.StatusText(int(e.Code))))
	}
	return e.Message
}

type SampleRequest struct {
	// Count is the number of images to draw from the model.
	Count int `json:"count"`
	// Scale is an optional integer upscaling factor for the grid.
	Scale int `json:"scale,omitempty"`
}

type StatusResponse struct {
	RunID     string    `json:"run_id"`
	Epochs    int       `json:"epochs"`
	Completed int       `json:"completed"`
	TrainBpd  []float64 `json:"train_bpd"`
	ValBpd    []float64 `json:"val_bpd"`

	Rows   int `json:"rows"`
	Cols   int `json:"cols"`
	Blocks int `json:"blocks"`
	Hidden int `json:"hidden"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
