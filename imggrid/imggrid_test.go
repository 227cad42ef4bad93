package imggrid

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRender(t *testing.T) {
	// four 2x2 images on a 2-wide grid
	samples := mat.NewDense(4, 4, []float64{
		0, 64, 128, 255,
		255, 255, 255, 255,
		0, 0, 0, 0,
		128, 128, 128, 128,
	})

	img, err := Render(samples, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	wantW := 2*2 + 3*padding
	wantH := 2*2 + 3*padding
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Fatalf("grid bounds %v, want %dx%d", img.Bounds(), wantW, wantH)
	}

	// min maps to 0, max to 255
	if got := img.GrayAt(padding, padding).Y; got != 0 {
		t.Errorf("minimum intensity rendered as %d, want 0", got)
	}
	if got := img.GrayAt(padding+1, padding+1).Y; got != 255 {
		t.Errorf("maximum intensity rendered as %d, want 255", got)
	}
}

func TestRenderDimensionMismatch(t *testing.T) {
	samples := mat.NewDense(1, 5, nil)
	if _, err := Render(samples, 1, 2, 2); err == nil {
		t.Fatal("expected an error for a sample length mismatch")
	}
}

func TestRenderConstantBatch(t *testing.T) {
	samples := mat.NewDense(2, 4, []float64{7, 7, 7, 7, 7, 7, 7, 7})
	if _, err := Render(samples, 2, 2, 2); err != nil {
		t.Fatal(err)
	}
}

func TestScaleAndSave(t *testing.T) {
	samples := mat.NewDense(1, 4, []float64{0, 85, 170, 255})
	img, err := Render(samples, 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	scaled := Scale(img, 3)
	if scaled.Bounds().Dx() != img.Bounds().Dx()*3 {
		t.Fatalf("scaled width %d, want %d", scaled.Bounds().Dx(), img.Bounds().Dx()*3)
	}

	name := filepath.Join(t.TempDir(), "grid.png")
	if err := SavePNG(name, scaled); err != nil {
		t.Fatal(err)
	}
}
