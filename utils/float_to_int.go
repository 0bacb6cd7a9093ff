// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToPCM scales a sample in [-1,1] to a signed integer of the given
// bit depth, clamping out-of-range input. The scale is the largest positive
// value, so +1 and -1 map to symmetric codes.
func Float32ToPCM(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	peak := float64(int64(1)<<(bitDepth-1) - 1)
	return int(float64(x) * peak)
}
