// SPDX-License-Identifier: EPL-2.0

package utils

// Float is the set of sample types the interpolators accept.
type Float interface {
	~float32 | ~float64
}

// CubicInterpolate performs Catmull-Rom interpolation between y1 and y2.
// x is the fractional position (0 <= x <= 1); y0 and y3 are the outer
// neighbours.
func CubicInterpolate[T Float](y0, y1, y2, y3, x T) T {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// CubicAt samples buf at the fractional index pos, clamping the four-point
// neighbourhood to the slice bounds. Positions outside [0, len(buf)-1]
// return zero.
func CubicAt[T Float](buf []T, pos T) T {
	n := len(buf)
	if n == 0 || pos < 0 || pos > T(n-1) {
		return 0
	}

	i := int(pos)
	x := pos - T(i)

	at := func(j int) T {
		if j < 0 {
			j = 0
		} else if j >= n {
			j = n - 1
		}
		return buf[j]
	}

	return CubicInterpolate(at(i-1), at(i), at(i+1), at(i+2), x)
}
