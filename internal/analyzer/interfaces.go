package analyzer

import "go-inspection-service/pkg/models"

// Rand is the randomness a scorer draws from. *math/rand/v2.Rand satisfies
// it; tests pass seeded or scripted sources.
type Rand interface {
	IntN(n int) int
	Float64() float64
	Perm(n int) []int
}

// ExteriorAnalyzer scores the fetched images. images is never empty when
// called by the service.
type ExteriorAnalyzer interface {
	Score(images [][]byte, r Rand) models.AnalysisOutcome
}

// EngineAnalyzer scores the engine. A nil audio slice means no usable audio
// was provided.
type EngineAnalyzer interface {
	Score(audio []byte, r Rand) models.AnalysisOutcome
}
