// Package imggrid renders batches of flattened grayscale images into a
// single padded grid, the usual way to eyeball samples from a
// generative model during training.
package imggrid

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const padding = 2

// Render lays the rows of samples out on a cols-wide grid of h×w
// images. Intensities are min-max normalized over the whole batch
// before quantization, so untrained models still render visibly.
func Render(samples *mat.Dense, cols, h, w int) (*image.Gray, error) {
	n, dim := samples.Dims()
	if dim != h*w {
		return nil, fmt.Errorf("imggrid: %d values per sample, want %d", dim, h*w)
	}
	if cols <= 0 {
		return nil, fmt.Errorf("imggrid: invalid column count %d", cols)
	}

	rows := (n + cols - 1) / cols

	data := samples.RawMatrix().Data
	lo := floats.Min(data)
	hi := floats.Max(data)
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	grid := image.NewGray(image.Rect(0, 0,
		cols*w+(cols+1)*padding,
		rows*h+(rows+1)*padding,
	))

	for i := 0; i < n; i++ {
		gx := (i % cols) * (w + padding)
		gy := (i / cols) * (h + padding)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := (data[i*dim+y*w+x] - lo) * scale
				grid.SetGray(padding+gx+x, padding+gy+y, color.Gray{Y: uint8(v)})
			}
		}
	}

	return grid, nil
}

// Scale resizes img by an integer factor with nearest-neighbor
// interpolation, keeping pixels crisp.
func Scale(img *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return img
	}

	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, bounds, draw.Src, nil)
	return out
}

// SavePNG writes img to name.
func SavePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}

	return f.Close()
}
