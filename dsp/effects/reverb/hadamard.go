package reverb

// hadamardScale normalizes the 16x16 +-1 Hadamard matrix to be orthonormal.
const hadamardScale = 0.25

// hadamard16 multiplies v in place by the normalized Sylvester Hadamard
// matrix using the fast Walsh-Hadamard butterfly.
func hadamard16(v *[numDelays]float64) {
	for h := 1; h < numDelays; h <<= 1 {
		for i := 0; i < numDelays; i += h << 1 {
			for j := i; j < i+h; j++ {
				a, b := v[j], v[j+h]
				v[j], v[j+h] = a+b, a-b
			}
		}
	}

	for i := range v {
		v[i] *= hadamardScale
	}
}
