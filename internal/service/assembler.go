package service

import (
	"time"

	"go-inspection-service/pkg/models"
)

// Assemble builds the final response from the two scorer outcomes. The
// combined issue list is the exterior issues followed by the engine issues.
func Assemble(
	jobID string,
	exterior, engine models.AnalysisOutcome,
	imagesProcessed int,
	audioProcessed bool,
	at time.Time,
) *models.AnalysisResponse {
	exterior.Issues = nonNil(exterior.Issues)
	engine.Issues = nonNil(engine.Issues)

	issues := make([]string, 0, len(exterior.Issues)+len(engine.Issues))
	issues = append(issues, exterior.Issues...)
	issues = append(issues, engine.Issues...)

	return &models.AnalysisResponse{
		JobID:         jobID,
		ExteriorScore: exterior.Score,
		EngineScore:   engine.Score,
		Issues:        issues,
		Raw: models.RawOutput{
			ExteriorAnalysis: exterior,
			EngineAnalysis:   engine,
			Metadata: models.Metadata{
				JobID:             jobID,
				ImagesProcessed:   imagesProcessed,
				AudioProcessed:    audioProcessed,
				AnalysisTimestamp: float64(at.UnixNano()) / float64(time.Second),
			},
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
