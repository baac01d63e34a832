package analyzer

import (
	"go-inspection-service/internal/logger"
	"go-inspection-service/pkg/models"
)

const (
	visualBaseScore    = 60
	visualMaxVariation = 15

	audioBaseScore    = 70
	audioMinVariation = -25
	audioMaxVariation = 20
	audioMaxIssues    = 2
)

// EngineScorer produces the engine condition report, from audio when it is
// available and from a visual-only fallback otherwise.
type EngineScorer struct{}

func NewEngineScorer() *EngineScorer {
	return &EngineScorer{}
}

func (s *EngineScorer) Score(audio []byte, r Rand) models.AnalysisOutcome {
	if audio == nil {
		logger.Debug("No audio provided, scoring engine from visual inspection only")
		return s.scoreWithoutAudio(r)
	}
	logger.WithField("audio_bytes", len(audio)).Debug("Scoring engine from audio")
	return s.scoreWithAudio(audio, r)
}

func (s *EngineScorer) scoreWithoutAudio(r Rand) models.AnalysisOutcome {
	return models.AnalysisOutcome{
		Score:  clampScore(visualBaseScore + uniformInt(r, -visualMaxVariation, visualMaxVariation)),
		Issues: []string{NoAudioIssue},
		Details: models.VisualEngineDetails{
			AudioProvided:   false,
			AnalysisMethod:  "visual_inspection_only",
			ConfidenceScore: uniformFloat(r, 0.60, 0.75),
		},
	}
}

func (s *EngineScorer) scoreWithAudio(audio []byte, r Rand) models.AnalysisOutcome {
	score := clampScore(audioBaseScore + uniformInt(r, audioMinVariation, audioMaxVariation))
	issues := sample(r, engineIssueCatalog, uniformInt(r, 0, min(audioMaxIssues, len(engineIssueCatalog))))

	return models.AnalysisOutcome{
		Score:  score,
		Issues: issues,
		Details: models.AudioEngineDetails{
			AudioProvided:        true,
			AudioBytes:           len(audio),
			AudioDurationSeconds: uniformFloat(r, 5.0, 30.0),
			FrequencyAnalysis: models.FrequencyAnalysis{
				DominantFrequencyHz: uniformFloat(r, 50, 200),
				HarmonicsDetected:   uniformInt(r, 2, 5),
				NoiseLevel:          choice(r, noiseLevels),
			},
			ConditionAssessment: models.EngineCondition{
				Overall:              overallLabel(score),
				IdleQuality:          choice(r, idleQualities),
				AccelerationResponse: choice(r, accelerationResponses),
			},
			ConfidenceScore: uniformFloat(r, 0.80, 0.95),
		},
	}
}
