package models

// VisionAssessment is the external computer-vision scorer's reading of the
// evidence image.
type VisionAssessment struct {
	Severity   Severity `json:"severity" yaml:"severity"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Features   []string `json:"features,omitempty" yaml:"features,omitempty"`
}
