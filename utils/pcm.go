// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// Int16ToFloat64 scales a 16-bit PCM sample to [-1, 1).
func Int16ToFloat64(v int16) float64 {
	return float64(v) / 32768.0
}

// Int8ToFloat64 scales a signed 8-bit PCM sample to [-1, 1).
func Int8ToFloat64(v int8) float64 {
	return float64(v) / 128.0
}

// PutPCM16 writes samples as little-endian 16-bit PCM into dst and returns
// the number of bytes written. dst must hold 2*len(samples) bytes; extra
// samples are ignored.
func PutPCM16(dst []byte, samples []float32) int {
	n := min(len(samples), len(dst)/2)
	for i := range n {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(Float32ToInt16(samples[i])))
	}

	return n * 2
}

// PCM16At decodes the little-endian 16-bit sample at byte offset off.
func PCM16At(src []byte, off int) float64 {
	return Int16ToFloat64(int16(binary.LittleEndian.Uint16(src[off:])))
}

// ClampFloat32 limits x to [-1, 1].
func ClampFloat32(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
