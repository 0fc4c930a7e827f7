package service

import (
	"fmt"
	"strings"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
)

// buildSystemPrompt embeds the case grounding: patient metadata, every prep
// material verbatim, the full marking scheme with criterion identifiers and
// point values, the response schema, and the classification thresholds. The
// output is deterministic for a given case so prompt pairs stored on attempts
// stay reproducible.
func buildSystemPrompt(c *model.SimulationCase) string {
	var b strings.Builder

	b.WriteString("You are an experienced clinical examiner assessing a medical student's consultation with a simulated patient.\n")
	b.WriteString("You must evaluate the consultation transcript strictly against the marking scheme below.\n\n")

	b.WriteString("## Case\n")
	b.WriteString(fmt.Sprintf("Patient: %s\n", c.PatientName))
	b.WriteString(fmt.Sprintf("Scenario: %s\n", c.Title))
	b.WriteString(fmt.Sprintf("Presenting condition: %s\n", c.PresentingCondition))
	if c.PatientAge != nil {
		b.WriteString(fmt.Sprintf("Age: %d\n", *c.PatientAge))
	}
	if c.PatientGender != nil {
		b.WriteString(fmt.Sprintf("Gender: %s\n", *c.PatientGender))
	}

	if len(c.PrepMaterials) > 0 {
		b.WriteString("\n## Preparation materials\n")
		currentCategory := ""
		for _, m := range c.PrepMaterials {
			if m.Category != currentCategory {
				currentCategory = m.Category
				b.WriteString(fmt.Sprintf("\n### %s\n", m.Category))
			}
			b.WriteString(fmt.Sprintf("- %s\n", m.Text))
		}
	}

	b.WriteString("\n## Marking scheme\n")
	b.WriteString("Each criterion is strictly binary: met or not met. Partial credit does not exist.\n")
	for _, d := range c.MarkingDomains {
		b.WriteString(fmt.Sprintf("\n### Domain %d: %s\n", d.ID, d.Name))
		for _, cr := range d.Criteria {
			b.WriteString(fmt.Sprintf("- [criterion %d, %d points] %s\n", cr.ID, cr.Points, cr.Text))
		}
	}

	b.WriteString("\n## Classification thresholds (fraction of criteria met)\n")
	b.WriteString("- more than 75% met: clear pass\n")
	b.WriteString("- 50% to 75% met: borderline pass\n")
	b.WriteString("- 25% to under 50% met: borderline fail\n")
	b.WriteString("- under 25% met: clear fail\n")

	b.WriteString("\n## Response format\n")
	b.WriteString("Respond with a single JSON object and nothing else. Schema:\n")
	b.WriteString(`{
  "overall_feedback": "<2-4 sentences of overall narrative feedback>",
  "criteria": [
    {
      "criterion_id": <integer id from the marking scheme>,
      "met": <true or false>,
      "quotes": ["<1 to 3 short verbatim quotations from the transcript supporting the judgement>"],
      "feedback": "<one sentence explaining the judgement>"
    }
  ]
}
`)
	b.WriteString("Include every criterion from the marking scheme exactly once. Base every judgement only on the transcript.\n")

	return b.String()
}

// buildUserPrompt renders the normalized transcript as "[timestamp] SPEAKER:
// text" lines together with the session duration.
func buildUserPrompt(t dto.NormalizedTranscript) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Consultation transcript (%d messages, %d seconds):\n\n", t.MessageCount, t.DurationSeconds))
	for _, m := range t.Messages {
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.Timestamp, strings.ToUpper(m.Speaker), m.Text))
	}
	b.WriteString("\nEvaluate every criterion in the marking scheme as strictly binary, quoting the transcript as evidence. Respond with the JSON object only.\n")

	return b.String()
}
