package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inspection-service/pkg/models"
)

// fixedRand always picks the same end of every range.
type fixedRand struct {
	high bool
}

func (f fixedRand) IntN(n int) int {
	if f.high {
		return n - 1
	}
	return 0
}

func (f fixedRand) Float64() float64 {
	if f.high {
		return math.Nextafter(1, 0)
	}
	return 0
}

func (f fixedRand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func assertDistinctFrom(t *testing.T, issues, catalog []string) {
	t.Helper()
	seen := make(map[string]bool, len(issues))
	for _, issue := range issues {
		assert.Contains(t, catalog, issue)
		assert.False(t, seen[issue], "duplicate issue %q", issue)
		seen[issue] = true
	}
}

func TestExteriorScorer_Bounds(t *testing.T) {
	scorer := NewExteriorScorer()
	images := [][]byte{[]byte("a"), []byte("bb")}

	for seed := uint64(1); seed <= 500; seed++ {
		outcome := scorer.Score(images, NewRandFactory(seed)())

		assert.GreaterOrEqual(t, outcome.Score, 55)
		assert.LessOrEqual(t, outcome.Score, 100)
		assert.LessOrEqual(t, len(outcome.Issues), 3)
		assert.NotNil(t, outcome.Issues)
		assertDistinctFrom(t, outcome.Issues, exteriorIssueCatalog)

		details, ok := outcome.Details.(models.ExteriorDetails)
		require.True(t, ok)
		assert.Equal(t, 2, details.ImagesAnalyzed)
		assert.Equal(t, detectedComponents, details.DetectedComponents)
		assert.Contains(t, paintQualities, details.ConditionAssessment.PaintQuality)
		assert.GreaterOrEqual(t, details.Confidence(), 0.85)
		assert.LessOrEqual(t, details.Confidence(), 0.98)
	}
}

func TestExteriorScorer_Labels(t *testing.T) {
	scorer := NewExteriorScorer()
	images := [][]byte{[]byte("x")}

	low := scorer.Score(images, fixedRand{high: false})
	assert.Equal(t, 55, low.Score)
	assert.Empty(t, low.Issues)
	lowDetails := low.Details.(models.ExteriorDetails)
	assert.Equal(t, "fair", lowDetails.ConditionAssessment.Overall)
	assert.Equal(t, "significant", lowDetails.ConditionAssessment.BodyDamage)
	assert.Equal(t, "excellent", lowDetails.ConditionAssessment.PaintQuality)

	high := scorer.Score(images, fixedRand{high: true})
	assert.Equal(t, 100, high.Score)
	assert.Equal(t, exteriorIssueCatalog[:3], high.Issues)
	highDetails := high.Details.(models.ExteriorDetails)
	assert.Equal(t, "good", highDetails.ConditionAssessment.Overall)
	assert.Equal(t, "minimal", highDetails.ConditionAssessment.BodyDamage)
	assert.Equal(t, "poor", highDetails.ConditionAssessment.PaintQuality)
}

func TestExteriorScorer_DetectedComponentsNotShared(t *testing.T) {
	outcome := NewExteriorScorer().Score([][]byte{{1}}, fixedRand{})
	details := outcome.Details.(models.ExteriorDetails)
	details.DetectedComponents[0] = "changed"

	assert.Equal(t, "Front bumper", detectedComponents[0])
}

func TestPayloadStats(t *testing.T) {
	assert.Equal(t, models.PayloadStats{}, payloadStats(nil))

	single := payloadStats([][]byte{make([]byte, 10)})
	assert.Equal(t, 10, single.TotalBytes)
	assert.Equal(t, 10.0, single.MeanBytes)
	assert.Equal(t, 0.0, single.StddevBytes)

	pair := payloadStats([][]byte{make([]byte, 2), make([]byte, 4)})
	assert.Equal(t, 6, pair.TotalBytes)
	assert.InDelta(t, 3.0, pair.MeanBytes, 1e-9)
	assert.InDelta(t, math.Sqrt2, pair.StddevBytes, 1e-9)
}

func TestEngineScorer_NoAudio(t *testing.T) {
	scorer := NewEngineScorer()

	for seed := uint64(1); seed <= 500; seed++ {
		outcome := scorer.Score(nil, NewRandFactory(seed)())

		assert.GreaterOrEqual(t, outcome.Score, 45)
		assert.LessOrEqual(t, outcome.Score, 75)
		assert.Equal(t, []string{NoAudioIssue}, outcome.Issues)

		details, ok := outcome.Details.(models.VisualEngineDetails)
		require.True(t, ok)
		assert.False(t, details.AudioProvided)
		assert.Equal(t, "visual_inspection_only", details.AnalysisMethod)
		assert.GreaterOrEqual(t, details.Confidence(), 0.60)
		assert.LessOrEqual(t, details.Confidence(), 0.75)
	}
}

func TestEngineScorer_WithAudio(t *testing.T) {
	scorer := NewEngineScorer()
	audio := make([]byte, 2048)

	for seed := uint64(1); seed <= 500; seed++ {
		outcome := scorer.Score(audio, NewRandFactory(seed)())

		assert.GreaterOrEqual(t, outcome.Score, 45)
		assert.LessOrEqual(t, outcome.Score, 90)
		assert.LessOrEqual(t, len(outcome.Issues), 2)
		assertDistinctFrom(t, outcome.Issues, engineIssueCatalog)

		details, ok := outcome.Details.(models.AudioEngineDetails)
		require.True(t, ok)
		assert.True(t, details.AudioProvided)
		assert.Equal(t, 2048, details.AudioBytes)
		assert.GreaterOrEqual(t, details.AudioDurationSeconds, 5.0)
		assert.LessOrEqual(t, details.AudioDurationSeconds, 30.0)
		assert.GreaterOrEqual(t, details.FrequencyAnalysis.DominantFrequencyHz, 50.0)
		assert.LessOrEqual(t, details.FrequencyAnalysis.DominantFrequencyHz, 200.0)
		assert.GreaterOrEqual(t, details.FrequencyAnalysis.HarmonicsDetected, 2)
		assert.LessOrEqual(t, details.FrequencyAnalysis.HarmonicsDetected, 5)
		assert.Contains(t, noiseLevels, details.FrequencyAnalysis.NoiseLevel)
		assert.Contains(t, idleQualities, details.ConditionAssessment.IdleQuality)
		assert.Contains(t, accelerationResponses, details.ConditionAssessment.AccelerationResponse)
		assert.GreaterOrEqual(t, details.Confidence(), 0.80)
		assert.LessOrEqual(t, details.Confidence(), 0.95)
	}
}

func TestEngineScorer_EmptyAudioCountsAsAudio(t *testing.T) {
	outcome := NewEngineScorer().Score([]byte{}, fixedRand{})

	details, ok := outcome.Details.(models.AudioEngineDetails)
	require.True(t, ok)
	assert.True(t, details.AudioProvided)
	assert.Equal(t, 45, outcome.Score)
	assert.Equal(t, "poor", details.ConditionAssessment.Overall)
}

func TestScorers_DeterministicForSeed(t *testing.T) {
	factory := NewRandFactory(42)
	images := [][]byte{[]byte("img")}

	first := NewExteriorScorer().Score(images, factory())
	second := NewExteriorScorer().Score(images, factory())
	assert.Equal(t, first, second)

	firstEngine := NewEngineScorer().Score([]byte("a"), factory())
	secondEngine := NewEngineScorer().Score([]byte("a"), factory())
	assert.Equal(t, firstEngine, secondEngine)
}

func TestNewRandFactory_Unseeded(t *testing.T) {
	factory := NewRandFactory(0)
	r := factory()
	require.NotNil(t, r)

	n := r.IntN(10)
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 10)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 100, clampScore(130))
	assert.Equal(t, 42, clampScore(42))
}
