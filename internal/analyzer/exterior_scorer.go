package analyzer

import (
	"gonum.org/v1/gonum/stat"

	"go-inspection-service/internal/logger"
	"go-inspection-service/pkg/models"
)

const (
	exteriorBaseScore    = 75
	exteriorMinVariation = -20
	exteriorMaxVariation = 25
	exteriorMaxIssues    = 3
)

// ExteriorScorer produces the exterior condition report. The score is a
// placeholder drawn around a fixed base.
type ExteriorScorer struct{}

func NewExteriorScorer() *ExteriorScorer {
	return &ExteriorScorer{}
}

func (s *ExteriorScorer) Score(images [][]byte, r Rand) models.AnalysisOutcome {
	logger.WithField("images", len(images)).Debug("Scoring exterior")

	score := clampScore(exteriorBaseScore + uniformInt(r, exteriorMinVariation, exteriorMaxVariation))
	issues := sample(r, exteriorIssueCatalog, uniformInt(r, 0, min(exteriorMaxIssues, len(exteriorIssueCatalog))))

	components := make([]string, len(detectedComponents))
	copy(components, detectedComponents)

	return models.AnalysisOutcome{
		Score:  score,
		Issues: issues,
		Details: models.ExteriorDetails{
			ImagesAnalyzed:     len(images),
			DetectedComponents: components,
			ConditionAssessment: models.ExteriorCondition{
				Overall:      overallLabel(score),
				PaintQuality: choice(r, paintQualities),
				BodyDamage:   bodyDamageLabel(score),
			},
			PayloadStats:    payloadStats(images),
			ConfidenceScore: uniformFloat(r, 0.85, 0.98),
		},
	}
}

func bodyDamageLabel(score int) string {
	switch {
	case score >= 80:
		return "minimal"
	case score >= 60:
		return "moderate"
	default:
		return "significant"
	}
}

func payloadStats(images [][]byte) models.PayloadStats {
	if len(images) == 0 {
		return models.PayloadStats{}
	}

	sizes := make([]float64, len(images))
	total := 0
	for i, img := range images {
		sizes[i] = float64(len(img))
		total += len(img)
	}

	ps := models.PayloadStats{TotalBytes: total}
	if len(sizes) < 2 {
		ps.MeanBytes = sizes[0]
		return ps
	}
	ps.MeanBytes, ps.StddevBytes = stat.MeanStdDev(sizes, nil)
	return ps
}
