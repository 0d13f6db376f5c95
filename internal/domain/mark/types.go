// Package mark holds the shared domain types for a single trademark
// assessment: the submitted mark, its structural metadata, safety findings
// and the tiered risk verdict.
package mark

import "encoding/json"

// Kind distinguishes image marks from plain text marks.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Mark is the submitted artifact under assessment. Exactly one of Image or
// Text is populated depending on Kind. Marks are immutable after creation.
type Mark struct {
	Kind     Kind
	Filename string
	Image    []byte
	Text     string
}

// NewImageMark wraps an uploaded logo image.
func NewImageMark(filename string, data []byte) Mark {
	return Mark{Kind: KindImage, Filename: filename, Image: data}
}

// NewTextMark wraps a plain text mark (brand name).
func NewTextMark(text string) Mark {
	return Mark{Kind: KindText, Text: text}
}

// Identity returns the human-readable identifier of the mark: the filename
// for images, the raw text otherwise.
func (m Mark) Identity() string {
	if m.Kind == KindImage {
		return m.Filename
	}
	return m.Text
}

// Severity grades an individual safety flag.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// RiskLevel is the tier derived from the final risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// LevelForScore maps a risk score to its tier. Both boundaries are strict:
// a score of exactly 75 is Medium and exactly 35 is Low.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score > 75:
		return RiskHigh
	case score > 35:
		return RiskMedium
	default:
		return RiskLow
	}
}

// SafetyFlag is one independent compliance or quality concern, unrelated to
// similarity search.
type SafetyFlag struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// SafetyResult collects the flags raised for one mark. Whether the mark is
// safe is always derived from the flags, never stored.
type SafetyResult struct {
	Flags []SafetyFlag
}

// IsSafe reports whether no High severity flag was raised.
func (r SafetyResult) IsSafe() bool {
	for _, f := range r.Flags {
		if f.Severity == SeverityHigh {
			return false
		}
	}
	return true
}

// MarshalJSON emits the derived is_safe field alongside the flags so the
// wire shape matches what dashboards expect.
func (r SafetyResult) MarshalJSON() ([]byte, error) {
	flags := r.Flags
	if flags == nil {
		flags = []SafetyFlag{}
	}
	return json.Marshal(struct {
		IsSafe bool         `json:"is_safe"`
		Flags  []SafetyFlag `json:"flags"`
	}{
		IsSafe: r.IsSafe(),
		Flags:  flags,
	})
}

// StructuralMetadata describes the physical properties of an image mark.
// It is derived once per mark and immutable afterward. The zero value acts
// as the degraded default when extraction fails.
type StructuralMetadata struct {
	Filename      string  `json:"filename"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        string  `json:"format"`
	FileSizeKB    float64 `json:"file_size_kb"`
	AspectRatio   float64 `json:"aspect_ratio"`
	DominantColor string  `json:"dominant_color,omitempty"`
}

// RiskAssessment couples the bounded score with its derived tier. Level is
// always computed from Score via LevelForScore.
type RiskAssessment struct {
	Score float64   `json:"score"`
	Level RiskLevel `json:"level"`
}

// NewRiskAssessment derives the tier so callers cannot set it independently
// of the score.
func NewRiskAssessment(score float64) RiskAssessment {
	return RiskAssessment{Score: score, Level: LevelForScore(score)}
}

// Remedy is the structured, tier-specific guidance attached to an
// assessment.
type Remedy struct {
	Status           string   `json:"status"`
	Action           string   `json:"action"`
	Steps            []string `json:"steps"`
	Warning          string   `json:"warning"`
	SpecificWarnings []string `json:"specific_warnings,omitempty"`
}
