// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the taper applied to the rolling window before the FFT.
type WindowFunc int

// Available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// String returns the canonical config name of the window.
func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "BartlettHann"
	case Blackman:
		return "Blackman"
	case BlackmanNuttall:
		return "BlackmanNuttall"
	case Hann:
		return "Hann"
	case Hamming:
		return "Hamming"
	case Lanczos:
		return "Lanczos"
	case Nuttall:
		return "Nuttall"
	default:
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
}

// ParseWindowFunc converts a config name (case-insensitive) to a WindowFunc.
// Unknown names return Hamming together with an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming", "":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hamming, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// windowCoefficients returns n taper coefficients. The slice is filled with
// ones first because the gonum window functions scale their input in place.
func windowCoefficients(n int, windowType WindowFunc) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hamming(coeffs)
	}
	return coeffs
}

// spectrum turns a fixed-length signal into the magnitudes of the lower half
// of its zero-padded real FFT. All buffers are allocated once; magnitudes
// reuses them on every call.
type spectrum struct {
	fft        *fourier.FFT
	sampleRate float64
	size       int          // padded FFT length (power of two)
	window     []float64    // taper, one coefficient per signal sample
	input      []float64    // windowed, zero-padded signal
	coeffs     []complex128 // size/2+1 FFT output
	magnitude  []float64    // first signalLen/2 magnitudes
}

func newSpectrum(signalLen int, sampleRate float64, windowType WindowFunc) (*spectrum, error) {
	if signalLen < 2 {
		return nil, fmt.Errorf("signal length must be at least 2, got %d", signalLen)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	size := paddedLength(signalLen)
	return &spectrum{
		fft:        fourier.NewFFT(size),
		sampleRate: sampleRate,
		size:       size,
		window:     windowCoefficients(signalLen, windowType),
		input:      make([]float64, size),
		coeffs:     make([]complex128, size/2+1),
		magnitude:  make([]float64, signalLen/2),
	}, nil
}

// magnitudes windows signal, pads it to the FFT size and returns |X[k]| for
// k < len(signal)/2. The result aliases internal storage.
func (s *spectrum) magnitudes(signal []float64) []float64 {
	for i := range s.input {
		if i < len(signal) && i < len(s.window) {
			s.input[i] = signal[i] * s.window[i]
		} else {
			s.input[i] = 0
		}
	}

	s.fft.Coefficients(s.coeffs, s.input)
	for i := range s.magnitude {
		s.magnitude[i] = cmplx.Abs(s.coeffs[i])
	}
	return s.magnitude
}

// binFrequency returns the centre frequency in Hz of FFT bin i.
func (s *spectrum) binFrequency(i int) float64 {
	return float64(i) * s.sampleRate / float64(s.size)
}

// bins returns the number of magnitudes produced per call.
func (s *spectrum) bins() int {
	return len(s.magnitude)
}
