package models

import "strings"

// AnalysisRequest is the body of POST /analyze
type AnalysisRequest struct {
	JobID     string   `json:"jobId"`
	ImageURLs []string `json:"imageUrls"`
	AudioURL  *string  `json:"audioUrl,omitempty"`
}

// AudioURLOrEmpty returns the audio URL, or "" when it is missing or blank.
func (r AnalysisRequest) AudioURLOrEmpty() string {
	if r.AudioURL == nil || strings.TrimSpace(*r.AudioURL) == "" {
		return ""
	}
	return *r.AudioURL
}

// AnalysisResponse is the body returned by POST /analyze
type AnalysisResponse struct {
	JobID         string    `json:"jobId"`
	ExteriorScore int       `json:"exteriorScore"`
	EngineScore   int       `json:"engineScore"`
	Issues        []string  `json:"issues"`
	Raw           RawOutput `json:"raw"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
