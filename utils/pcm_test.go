// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{name: "zero", input: 0, want: 0},
		{name: "max positive", input: 1, want: math.MaxInt16},
		{name: "max negative", input: -1, want: -math.MaxInt16},
		{name: "half positive", input: 0.5, want: 16383},
		{name: "half negative", input: -0.5, want: -16383},
		{name: "clamp over max", input: 1.5, want: math.MaxInt16},
		{name: "clamp under min", input: -100, want: -math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInt16ToFloat64(t *testing.T) {
	t.Parallel()

	if got := Int16ToFloat64(16384); got != 0.5 {
		t.Errorf("Int16ToFloat64(16384) = %v, want 0.5", got)
	}
	if got := Int16ToFloat64(math.MinInt16); got != -1 {
		t.Errorf("Int16ToFloat64(min) = %v, want -1", got)
	}
	if got := Int8ToFloat64(-64); got != -0.5 {
		t.Errorf("Int8ToFloat64(-64) = %v, want -0.5", got)
	}
}

func TestPutPCM16(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 6)
	n := PutPCM16(dst, []float32{0, 1, -1, 0.5})
	if n != 6 {
		t.Fatalf("PutPCM16() = %d bytes, want 6", n)
	}

	want := []int16{0, math.MaxInt16, -math.MaxInt16}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(dst[2*i:])); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}

	if got := PCM16At(dst, 2); math.Abs(got-float64(math.MaxInt16)/32768) > 1e-12 {
		t.Errorf("PCM16At() = %v", got)
	}
}

func TestClampFloat32(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ in, want float32 }{{2, 1}, {-2, -1}, {0.25, 0.25}} {
		if got := ClampFloat32(tt.in); got != tt.want {
			t.Errorf("ClampFloat32(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPutPCM16_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	src := make([]float32, 1024)
	dst := make([]byte, 2048)
	allocs := testing.AllocsPerRun(100, func() {
		PutPCM16(dst, src)
	})
	if allocs > 0 {
		t.Errorf("PutPCM16 allocated %v times, want 0", allocs)
	}
}
