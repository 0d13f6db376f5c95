// Package remedy maps a risk score and safety findings to tiered,
// legal-style guidance. Templates are data: enumerated once per tier and
// selected, never computed.
package remedy

import (
	"fmt"

	"trulogo-server-go/internal/domain/mark"
)

var templates = map[mark.RiskLevel]mark.Remedy{
	mark.RiskLow: {
		Status: "Safe to Proceed",
		Action: "File for Trademark (TM-A)",
		Steps: []string{
			"Conduct a final comprehensive search on IP India/WIPO database.",
			"Identify the correct NICE class for your goods/services.",
			"File Form TM-A.",
			"Start using the ™ symbol.",
		},
		Warning: "Even low risk does not guarantee registration. Examiners may check phonetic similarity.",
	},
	mark.RiskMedium: {
		Status: "Caution Advised",
		Action: "Consult IP Attorney & Consider Minor Redesign",
		Steps: []string{
			"Review the similar marks shown below carefully.",
			"If your logo is very similar to a registered mark in the SAME class, you must redesign.",
			"If the similar marks are in different industries, you might be safe.",
			"Consult a trademark attorney for a 'Search Report'.",
		},
		Warning: "Proceeding without advice may lead to opposition (Form TM-O) later.",
	},
	mark.RiskHigh: {
		Status: "High Risk - Do Not Use",
		Action: "Immediate Rebranding Required",
		Steps: []string{
			"Your logo is dangerously similar to existing marks.",
			"Using this logo could lead to 'Cease and Desist' notices or infringement lawsuits.",
			"Use our 'Regenerate' tool to create a distinct alternative.",
			"Do not invest in printing or signage yet.",
		},
		Warning: "High probability of application rejection under Section 9/11 of Trade Marks Act.",
	},
}

// Selector picks the guidance template for a score tier and folds in
// warnings for the individual safety flags.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Select returns the remedy for the given score. High severity flags become
// CRITICAL warnings and Medium ones notes; Low severity flags stay out of
// the remedy text (they remain visible in the raw safety result).
func (s *Selector) Select(score float64, safetyResult mark.SafetyResult) (mark.RiskLevel, mark.Remedy) {
	level := mark.LevelForScore(score)

	tpl := templates[level]
	remedy := mark.Remedy{
		Status:  tpl.Status,
		Action:  tpl.Action,
		Steps:   append([]string(nil), tpl.Steps...),
		Warning: tpl.Warning,
	}

	var warnings []string
	for _, flag := range safetyResult.Flags {
		switch flag.Severity {
		case mark.SeverityHigh:
			warnings = append(warnings, fmt.Sprintf("CRITICAL: %s", flag.Message))
		case mark.SeverityMedium:
			warnings = append(warnings, fmt.Sprintf("Note: %s", flag.Message))
		}
	}
	if len(warnings) > 0 {
		remedy.SpecificWarnings = warnings
	}

	return level, remedy
}
