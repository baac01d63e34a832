package models

// Details is the structured detail block attached to a scorer outcome.
// Each scorer path has its own concrete shape.
type Details interface {
	Confidence() float64
}

// AnalysisOutcome is what a scorer produces
type AnalysisOutcome struct {
	Score   int      `json:"score"`
	Issues  []string `json:"issues"`
	Details Details  `json:"details"`
}

// ExteriorDetails describes the exterior scorer's view of the images
type ExteriorDetails struct {
	ImagesAnalyzed      int               `json:"images_analyzed"`
	DetectedComponents  []string          `json:"detected_components"`
	ConditionAssessment ExteriorCondition `json:"condition_assessment"`
	PayloadStats        PayloadStats      `json:"payload_stats"`
	ConfidenceScore     float64           `json:"confidence"`
}

func (d ExteriorDetails) Confidence() float64 { return d.ConfidenceScore }

type ExteriorCondition struct {
	Overall      string `json:"overall"`
	PaintQuality string `json:"paint_quality"`
	BodyDamage   string `json:"body_damage"`
}

// PayloadStats summarizes the sizes of the fetched images in bytes.
type PayloadStats struct {
	TotalBytes  int     `json:"total_bytes"`
	MeanBytes   float64 `json:"mean_bytes"`
	StddevBytes float64 `json:"stddev_bytes"`
}

// VisualEngineDetails is reported when no audio could be used
type VisualEngineDetails struct {
	AudioProvided   bool    `json:"audio_provided"`
	AnalysisMethod  string  `json:"analysis_method"`
	ConfidenceScore float64 `json:"confidence"`
}

func (d VisualEngineDetails) Confidence() float64 { return d.ConfidenceScore }

// AudioEngineDetails is reported when an audio clip was fetched
type AudioEngineDetails struct {
	AudioProvided        bool              `json:"audio_provided"`
	AudioBytes           int               `json:"audio_bytes"`
	AudioDurationSeconds float64           `json:"audio_duration_seconds"`
	FrequencyAnalysis    FrequencyAnalysis `json:"frequency_analysis"`
	ConditionAssessment  EngineCondition   `json:"condition_assessment"`
	ConfidenceScore      float64           `json:"confidence"`
}

func (d AudioEngineDetails) Confidence() float64 { return d.ConfidenceScore }

type FrequencyAnalysis struct {
	DominantFrequencyHz float64 `json:"dominant_frequency_hz"`
	HarmonicsDetected   int     `json:"harmonics_detected"`
	NoiseLevel          string  `json:"noise_level"`
}

type EngineCondition struct {
	Overall              string `json:"overall"`
	IdleQuality          string `json:"idle_quality"`
	AccelerationResponse string `json:"acceleration_response"`
}

// RawOutput is the full scorer output returned alongside the summary
type RawOutput struct {
	ExteriorAnalysis AnalysisOutcome `json:"exterior_analysis"`
	EngineAnalysis   AnalysisOutcome `json:"engine_analysis"`
	Metadata         Metadata        `json:"metadata"`
}

// Metadata records what the analysis was based on. AnalysisTimestamp is
// Unix seconds with a fractional part.
type Metadata struct {
	JobID             string  `json:"job_id"`
	ImagesProcessed   int     `json:"images_processed"`
	AudioProcessed    bool    `json:"audio_processed"`
	AnalysisTimestamp float64 `json:"analysis_timestamp"`
}
