// Package safety evaluates compliance and quality rules against a mark's
// structural metadata, independently of any similarity result.
package safety

import (
	"fmt"
	"strings"

	"trulogo-server-go/internal/domain/mark"
)

// ContentRule screens a mark for restricted content. The default
// implementation is a filename keyword heuristic standing in for a real
// content classifier; swap it out once one is available.
type ContentRule interface {
	Check(md mark.StructuralMetadata) (mark.SafetyFlag, bool)
}

// KeywordContentRule flags filenames containing restricted keywords.
type KeywordContentRule struct {
	Keywords []string
}

// DefaultKeywords cover national emblem usage restricted under the Emblems
// and Names Act.
var DefaultKeywords = []string{"emblem", "govt", "india"}

func (r KeywordContentRule) Check(md mark.StructuralMetadata) (mark.SafetyFlag, bool) {
	name := strings.ToLower(md.Filename)
	for _, kw := range r.Keywords {
		if strings.Contains(name, kw) {
			return mark.SafetyFlag{
				Type:     "content",
				Severity: mark.SeverityHigh,
				Message:  "Potential use of restricted National symbols or names. Please verify under Emblems and Names Act.",
			}, true
		}
	}
	return mark.SafetyFlag{}, false
}

var allowedFormats = map[string]bool{
	"PNG":  true,
	"JPEG": true,
	"JPG":  true,
	"SVG":  true,
}

// Checker runs every rule independently and accumulates flags; no rule
// short-circuits another.
type Checker struct {
	contentRule ContentRule
}

// NewChecker builds a checker with the keyword placeholder content rule.
func NewChecker() *Checker {
	return NewCheckerWithContentRule(KeywordContentRule{Keywords: DefaultKeywords})
}

// NewCheckerWithContentRule builds a checker with a custom content strategy.
func NewCheckerWithContentRule(rule ContentRule) *Checker {
	return &Checker{contentRule: rule}
}

// Check evaluates all rules against the metadata. It is a pure function of
// its input and never fails: a degraded default record simply produces the
// flags its zero values imply.
func (c *Checker) Check(md mark.StructuralMetadata) mark.SafetyResult {
	var flags []mark.SafetyFlag

	// Extreme ratios are usually banners rather than logos. A zero ratio
	// means the dimension was never extracted and is treated as square.
	aspect := md.AspectRatio
	if aspect == 0 {
		aspect = 1.0
	}
	if aspect > 3.0 || aspect < 0.33 {
		flags = append(flags, mark.SafetyFlag{
			Type:     "format",
			Severity: mark.SeverityLow,
			Message:  "Extreme aspect ratio detected. Ensure this is a logo, not a banner.",
		})
	}

	if md.FileSizeKB < 5 {
		flags = append(flags, mark.SafetyFlag{
			Type:     "quality",
			Severity: mark.SeverityMedium,
			Message:  "Image file size is very small. Higher resolution is recommended for trademark filing.",
		})
	}

	format := strings.ToUpper(md.Format)
	if !allowedFormats[format] {
		flags = append(flags, mark.SafetyFlag{
			Type:     "format",
			Severity: mark.SeverityLow,
			Message:  fmt.Sprintf("Format %s is less common. PNG or SVG is recommended.", format),
		})
	}

	if c.contentRule != nil {
		if flag, ok := c.contentRule.Check(md); ok {
			flags = append(flags, flag)
		}
	}

	return mark.SafetyResult{Flags: flags}
}
