package cultivation

// Rand is the only source of randomness the calculator and engine use.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// intBetween draws an integer in [lo, hi].
func intBetween(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := lo + int(rng.Float64()*float64(hi-lo+1))
	if n > hi {
		n = hi
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
