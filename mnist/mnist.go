// Package mnist downloads and parses the MNIST IDX files and exposes
// them as re-iterable, optionally shuffled batches of flattened
// float64 vectors with intensities in [0, 256).
package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801

	// Rows and Cols are the MNIST image dimensions.
	Rows = 28
	Cols = 28
)

// Dataset holds raw images and labels; pixels stay bytes until a batch
// is materialized, keeping the resident set small.
type Dataset struct {
	images []byte // n * Rows*Cols
	labels []byte // n
	n      int
}

func (d *Dataset) Len() int { return d.n }

func (d *Dataset) Label(i int) int { return int(d.labels[i]) }

// Image copies example i into a float64 vector of length Rows*Cols.
func (d *Dataset) Image(i int) []float64 {
	dim := Rows * Cols
	out := make([]float64, dim)
	for j, b := range d.images[i*dim : (i+1)*dim] {
		out[j] = float64(b)
	}
	return out
}

// Split returns the first n-valN examples and the remaining valN as
// two datasets sharing the underlying storage.
func (d *Dataset) Split(valN int) (*Dataset, *Dataset) {
	if valN < 0 || valN > d.n {
		valN = 0
	}
	dim := Rows * Cols
	cut := d.n - valN

	train := &Dataset{images: d.images[:cut*dim], labels: d.labels[:cut], n: cut}
	val := &Dataset{images: d.images[cut*dim:], labels: d.labels[cut:], n: valN}
	return train, val
}

// Load reads the gzipped training archives from dir.
func Load(dir string) (*Dataset, error) {
	images, err := readImages(filepath.Join(dir, "train-images-idx3-ubyte.gz"))
	if err != nil {
		return nil, err
	}

	labels, err := readLabels(filepath.Join(dir, "train-labels-idx1-ubyte.gz"))
	if err != nil {
		return nil, err
	}

	if len(labels) != len(images)/(Rows*Cols) {
		return nil, fmt.Errorf("mnist: %d labels for %d images", len(labels), len(images)/(Rows*Cols))
	}

	return &Dataset{images: images, labels: labels, n: len(labels)}, nil
}

func readImages(name string) ([]byte, error) {
	r, done, err := openGzip(name)
	if err != nil {
		return nil, err
	}
	defer done()

	var header struct {
		Magic uint32
		Count uint32
		Rows  uint32
		Cols  uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("mnist: reading %s: %w", name, err)
	}
	if header.Magic != imageMagic {
		return nil, fmt.Errorf("mnist: %s: bad magic %08x", name, header.Magic)
	}
	if header.Rows != Rows || header.Cols != Cols {
		return nil, fmt.Errorf("mnist: %s: unexpected image size %dx%d", name, header.Rows, header.Cols)
	}

	images := make([]byte, int(header.Count)*Rows*Cols)
	if _, err := io.ReadFull(r, images); err != nil {
		return nil, fmt.Errorf("mnist: reading %s: %w", name, err)
	}

	return images, nil
}

func readLabels(name string) ([]byte, error) {
	r, done, err := openGzip(name)
	if err != nil {
		return nil, err
	}
	defer done()

	var header struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("mnist: reading %s: %w", name, err)
	}
	if header.Magic != labelMagic {
		return nil, fmt.Errorf("mnist: %s: bad magic %08x", name, header.Magic)
	}

	labels := make([]byte, header.Count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("mnist: reading %s: %w", name, err)
	}

	return labels, nil
}

func openGzip(name string) (io.Reader, func() error, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("mnist: %s: %w", name, err)
	}

	return gz, func() error {
		gz.Close()
		return f.Close()
	}, nil
}
