package mnist

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Loader iterates a dataset in fixed-size batches. The iteration order
// is a permutation owned by the loader; Shuffle reshuffles it from the
// loader's own seeded source so epochs are reproducible.
type Loader struct {
	ds    *Dataset
	batch int
	perm  []int
	rng   *rand.Rand
}

func NewLoader(ds *Dataset, batchSize int, seed uint64) *Loader {
	if batchSize <= 0 {
		panic(fmt.Sprintf("mnist: invalid batch size %d", batchSize))
	}

	perm := make([]int, ds.Len())
	for i := range perm {
		perm[i] = i
	}

	return &Loader{
		ds:    ds,
		batch: batchSize,
		perm:  perm,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (l *Loader) Shuffle() {
	l.rng.Shuffle(len(l.perm), func(i, j int) {
		l.perm[i], l.perm[j] = l.perm[j], l.perm[i]
	})
}

// Batches returns the number of batches per epoch; a short final batch
// counts.
func (l *Loader) Batches() int {
	return (l.ds.Len() + l.batch - 1) / l.batch
}

// Batch materializes batch i as a rows×784 matrix of intensities.
func (l *Loader) Batch(i int) *mat.Dense {
	lo := i * l.batch
	hi := lo + l.batch
	if hi > l.ds.Len() {
		hi = l.ds.Len()
	}

	dim := Rows * Cols
	out := mat.NewDense(hi-lo, dim, nil)
	data := out.RawMatrix().Data
	for bi, idx := range l.perm[lo:hi] {
		src := l.ds.images[idx*dim : (idx+1)*dim]
		dst := data[bi*dim : (bi+1)*dim]
		for j, b := range src {
			dst[j] = float64(b)
		}
	}

	return out
}
