package server

import (
	"bytes"
	"context"
	"image/png"
	"net"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgen/flowgen/api"
	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/train"
	"github.com/flowgen/flowgen/version"
)

func startServer(t *testing.T) *api.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	model := flow.New(flow.Config{Rows: 4, Cols: 4, Blocks: 2, Hidden: 16, Seed: 1})
	history := &train.History{
		Train: []float64{8.2, 7.9},
		Val:   []float64{8.3, 8.0},
	}
	srv := New(model, history, 5)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go srv.Serve(ln)

	return api.NewClient(ln.Addr().String())
}

func TestVersion(t *testing.T) {
	client := startServer(t)

	got, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, version.Version, got)
}

func TestStatus(t *testing.T) {
	client := startServer(t)

	status, err := client.Status(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, status.RunID)
	assert.Equal(t, 5, status.Epochs)
	assert.Equal(t, 2, status.Completed)
	assert.Equal(t, []float64{8.2, 7.9}, status.TrainBpd)
	assert.Equal(t, 4, status.Rows)
	assert.Equal(t, 2, status.Blocks)
}

func TestSample(t *testing.T) {
	client := startServer(t)

	data, err := client.Sample(context.Background(), &api.SampleRequest{Count: 6, Scale: 2})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestSampleRejectsOversizedCount(t *testing.T) {
	client := startServer(t)

	_, err := client.Sample(context.Background(), &api.SampleRequest{Count: maxSampleCount + 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count exceeds maximum")
}
