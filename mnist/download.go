package mnist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const mirror = "https://storage.googleapis.com/cvdf-datasets/mnist/"

var trainingFiles = []string{
	"train-images-idx3-ubyte.gz",
	"train-labels-idx1-ubyte.gz",
}

// ProgressFunc reports completed and total bytes for a file as a
// download proceeds.
type ProgressFunc func(name string, completed, total int64)

// Download fetches the training archives into dir, skipping files that
// already exist. Files download concurrently.
func Download(ctx context.Context, dir string, fn ProgressFunc) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range trainingFiles {
		g.Go(func() error {
			return download(ctx, dir, name, fn)
		})
	}

	return g.Wait()
}

func download(ctx context.Context, dir, name string, fn ProgressFunc) error {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mirror+name, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mnist: downloading %s: %s", name, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, name+".partial-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var completed int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				tmp.Close()
				return werr
			}
			completed += int64(n)
			if fn != nil {
				fn(name, completed, resp.ContentLength)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			tmp.Close()
			return err
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
