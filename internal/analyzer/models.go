package analyzer

import (
	"math/rand/v2"
)

var exteriorIssueCatalog = []string{
	"Minor scratches on front bumper",
	"Paint chips on hood",
	"Dent on driver side door",
	"Rust spots on wheel wells",
	"Cracked windshield",
	"Faded paint on roof",
	"Scratches on rear bumper",
	"Missing side mirror cover",
	"Dented fender",
	"Paint mismatch on panel",
}

var engineIssueCatalog = []string{
	"Unusual knocking sound detected",
	"Rough idle detected",
	"Timing belt noise",
	"Exhaust leak suspected",
	"Engine misfire detected",
	"Belt squealing",
	"Low oil pressure warning",
	"Cooling system noise",
	"Transmission whine",
	"Engine mount wear",
}

var detectedComponents = []string{
	"Front bumper",
	"Hood",
	"Doors",
	"Windows",
	"Wheels",
	"Lights",
}

var (
	paintQualities        = []string{"excellent", "good", "fair", "poor"}
	noiseLevels           = []string{"low", "moderate", "high"}
	idleQualities         = []string{"smooth", "slightly_rough", "rough"}
	accelerationResponses = []string{"excellent", "good", "fair", "poor"}
)

// NoAudioIssue is the only issue reported when the engine is scored
// without audio.
const NoAudioIssue = "Audio analysis not available - visual inspection only"

// RandFactory hands out a fresh Rand for each analysis.
type RandFactory func() Rand

// NewRandFactory returns a factory seeded from seed. A zero seed draws a
// random seed for every call; any other value makes every call identical.
func NewRandFactory(seed uint64) RandFactory {
	if seed == 0 {
		return func() Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return func() Rand {
		return rand.New(rand.NewPCG(seed, seed))
	}
}

// uniformInt draws from the closed range [lo, hi].
func uniformInt(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

func uniformFloat(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func choice(r Rand, options []string) string {
	return options[r.IntN(len(options))]
}

// sample picks k distinct entries in random order.
func sample(r Rand, catalog []string, k int) []string {
	out := make([]string, 0, k)
	for _, i := range r.Perm(len(catalog))[:k] {
		out = append(out, catalog[i])
	}
	return out
}

func clampScore(score int) int {
	return max(0, min(100, score))
}

func overallLabel(score int) string {
	switch {
	case score >= 70:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}
