package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform by radix-2 decimation. The
// input length must be a power of two; Spectrum takes care of that for
// arbitrary residual series.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// Spectrum returns the magnitude spectrum of a residual series. The series
// is truncated to its largest power-of-two prefix and the mean removed, so
// a flat residual yields a flat spectrum and a periodic model error shows
// up as a single dominant bin. Bin k maps to frequency k/(n*ts) Hz for the
// truncated length n. Series shorter than two samples yield nil.
func Spectrum(residual []float64) []float64 {
	n := 1
	for n*2 <= len(residual) {
		n *= 2
	}
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range residual[:n] {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range residual[:n] {
		centered[i] = v - mean
	}

	fft := FFT(centered)
	spec := make([]float64, n/2)
	for i := range spec {
		spec[i] = cmplx.Abs(fft[i])
	}
	return spec
}
