package field

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum cell count to fan out convolution across
// workers. Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64 * 64

// convolveRows runs the naive kernel convolution for rows [y0, y1).
func (f *MassField) convolveRows(y0, y1 int) {
	n := f.N
	r := f.kernel.Radius
	w := f.kernel.Weights
	for y := y0; y < y1; y++ {
		for x := 0; x < n; x++ {
			var sum float64
			for dy := -r; dy <= r; dy++ {
				yy := wrapInt(y+dy, n) * n
				row := w[dy+r]
				for dx := -r; dx <= r; dx++ {
					kv := row[dx+r]
					if kv == 0 {
						continue
					}
					sum += f.A[yy+wrapInt(x+dx, n)] * kv
				}
			}
			f.potential[y*n+x] = sum
		}
	}
}

// convolveParallel splits the naive convolution into per-worker row bands.
// Each worker writes a disjoint slice of the potential buffer, so no
// synchronization beyond the join is needed.
func (f *MassField) convolveParallel() {
	n := f.N
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	rowsPer := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		y0 := w * rowsPer
		if y0 >= n {
			break
		}
		y1 := y0 + rowsPer
		if y1 > n {
			y1 = n
		}
		wg.Add(1)
		go func(a, b int) {
			defer wg.Done()
			f.convolveRows(a, b)
		}(y0, y1)
	}
	wg.Wait()
}
