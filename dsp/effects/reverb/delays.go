package reverb

import (
	"math"
	"math/rand/v2"
)

// numDelays is the number of delay lines in the network.
const numDelays = 16

const (
	// meanDelaySeconds is the nominal average line length.
	meanDelaySeconds = 0.0375
	// delaySpread spreads nominal lengths over [1-delaySpread, 1+delaySpread]
	// times the mean.
	delaySpread = 0.5
	// delayJitter is the relative random offset added to each nominal
	// length.
	delayJitter = 0.05
	delaySeed   = 0x5eed
	// delayTolerance is the largest log-ratio between a prime power and its
	// target before the line falls back to a plain prime.
	delayTolerance = 0.05
)

// delayLengths returns the line lengths in samples for sampleRate. Each
// nominal length gets a seeded random offset and is then replaced by the
// closest power of a prime base not used by an earlier line. When no unused
// base has a power near the target, the closest unused prime is taken. No
// two lines share a base, so the lengths are mutually prime. The result is
// deterministic.
func delayLengths(sampleRate float64) [numDelays]int {
	rng := rand.New(rand.NewPCG(delaySeed, 0))
	mean := meanDelaySeconds * sampleRate
	used := make(map[int]bool, numDelays)

	var out [numDelays]int
	for i := range out {
		spread := 1 - delaySpread + 2*delaySpread*float64(i)/float64(numDelays-1)
		jitter := 1 + delayJitter*(2*rng.Float64()-1)
		target := max(mean*spread*jitter, 2)

		base, length, bestErr := 0, 0, math.Inf(1)
		for p := 2; p*p <= int(target); p++ {
			if !isPrime(p) || used[p] {
				continue
			}

			n := nearestPrimePower(p, target)
			if err := math.Abs(math.Log(float64(n) / target)); err < bestErr {
				base, length, bestErr = p, n, err
			}
		}

		if bestErr > delayTolerance {
			base = nearestUnusedPrime(int(math.Round(target)), used)
			length = base
		}

		used[base] = true
		out[i] = length
	}

	return out
}

// nearestUnusedPrime returns the prime closest to n that is not in used,
// preferring the smaller one on a tie.
func nearestUnusedPrime(n int, used map[int]bool) int {
	for d := 0; ; d++ {
		if c := n - d; c >= 2 && isPrime(c) && !used[c] {
			return c
		}

		if c := n + d; isPrime(c) && !used[c] {
			return c
		}
	}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}

	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}

	return true
}

// nearestPrimePower returns the power of p closest to target on a
// logarithmic scale, never less than p.
func nearestPrimePower(p int, target float64) int {
	if target <= float64(p) {
		return p
	}

	k := max(math.Round(math.Log(target)/math.Log(float64(p))), 1)

	return int(math.Round(math.Pow(float64(p), k)))
}
