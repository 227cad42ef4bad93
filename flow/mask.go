package flow

// Checkerboard builds the binary mask for a rows×cols grid, flattened
// row-major: entry (i,j) is 1 when (i+j) is even. Consecutive coupling
// layers use this mask and its complement so each coordinate is
// transformed exactly once per layer pair.
func Checkerboard(rows, cols int) []float64 {
	mask := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if (i+j)%2 == 0 {
				mask[i*cols+j] = 1
			}
		}
	}
	return mask
}

// complement returns 1-mask.
func complement(mask []float64) []float64 {
	inv := make([]float64, len(mask))
	for i, m := range mask {
		inv[i] = 1 - m
	}
	return inv
}
