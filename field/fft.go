package field

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/pthm-cable/lenia/kernels"
)

// fftConvolver performs toroidal convolution in the frequency domain.
// For an N x N grid and kernel size K the naive path costs O(N^2 K^2); the
// FFT path costs O(N^2 log N) regardless of K, which wins for large kernels.
// The kernel spectrum is computed once, when the kernel is installed.
type fftConvolver struct {
	n        int
	fft      *fourier.CmplxFFT
	spectrum []complex128 // kernel transform, row-major n x n

	buf  []complex128 // field work buffer
	row  []complex128 // per-row transform scratch
	col  []complex128 // per-column gather scratch
	cout []complex128 // per-column transform scratch
}

func newFFTConvolver(n int, k kernels.Kernel) *fftConvolver {
	c := &fftConvolver{
		n:        n,
		fft:      fourier.NewCmplxFFT(n),
		spectrum: make([]complex128, n*n),
		buf:      make([]complex128, n*n),
		row:      make([]complex128, n),
		col:      make([]complex128, n),
		cout:     make([]complex128, n),
	}

	// Pad the kernel onto the torus with its center at the origin, so the
	// spatial-domain result aligns with the naive convolution.
	r := k.Radius
	for dy := -r; dy <= r; dy++ {
		yy := wrapInt(dy, n) * n
		for dx := -r; dx <= r; dx++ {
			c.spectrum[yy+wrapInt(dx, n)] = complex(k.Weights[dy+r][dx+r], 0)
		}
	}
	c.forward2D(c.spectrum)
	return c
}

// convolve writes the circular convolution of src with the kernel into dst.
func (c *fftConvolver) convolve(src, dst []float64) {
	n := c.n
	for i, v := range src {
		c.buf[i] = complex(v, 0)
	}

	c.forward2D(c.buf)
	for i := range c.buf {
		c.buf[i] *= c.spectrum[i]
	}
	c.inverse2D(c.buf)

	// gonum's Sequence is unnormalized: one forward+inverse pass per axis
	// multiplies by n, so divide by n^2.
	scale := 1 / float64(n*n)
	for i := range dst {
		dst[i] = real(c.buf[i]) * scale
	}
}

// forward2D applies the row-column DFT in place.
func (c *fftConvolver) forward2D(data []complex128) {
	n := c.n
	for y := 0; y < n; y++ {
		r := data[y*n : (y+1)*n]
		c.fft.Coefficients(c.row, r)
		copy(r, c.row)
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			c.col[y] = data[y*n+x]
		}
		c.fft.Coefficients(c.cout, c.col)
		for y := 0; y < n; y++ {
			data[y*n+x] = c.cout[y]
		}
	}
}

// inverse2D applies the unnormalized row-column inverse DFT in place.
func (c *fftConvolver) inverse2D(data []complex128) {
	n := c.n
	for y := 0; y < n; y++ {
		r := data[y*n : (y+1)*n]
		c.fft.Sequence(c.row, r)
		copy(r, c.row)
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			c.col[y] = data[y*n+x]
		}
		c.fft.Sequence(c.cout, c.col)
		for y := 0; y < n; y++ {
			data[y*n+x] = c.cout[y]
		}
	}
}
