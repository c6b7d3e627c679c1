package prompt

import (
	"encoding/json"
	"fmt"
)

// MaxReportBytes caps how much of a report is sent in one prompt.
const MaxReportBytes = 48 * 1024

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior application security analyst triaging gitleaks results. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Secrets have been redacted; never guess or reconstruct them.
- Use lowercase severity values: critical, high, medium, low, info.
- likely_false_positives lists file paths whose findings look like test fixtures or examples.
- rotate lists rule ids whose credentials should be rotated first.

Schema (example with empty values):
{
  "summary": "<string>",
  "severity": "<critical|high|medium|low|info>",
  "rotate": ["<rule id>"],
  "likely_false_positives": ["<file>"],
  "advice": "<string>"
}`
}

// GetUserPrompt wraps the redacted report, truncating oversized input.
func GetUserPrompt(report string) string {
	truncated := ""
	if len(report) > MaxReportBytes {
		report = report[:MaxReportBytes]
		truncated = " The report was truncated."
	}
	return fmt.Sprintf("Triage this redacted gitleaks report and respond with the JSON per schema.%s Report:\n%s", truncated, report)
}

// Triage is the structure the system prompt asks for.
type Triage struct {
	Summary              string   `json:"summary"`
	Severity             string   `json:"severity"`
	Rotate               []string `json:"rotate"`
	LikelyFalsePositives []string `json:"likely_false_positives"`
	Advice               string   `json:"advice"`
}

// ParseTriage checks the model response is the JSON object we asked for.
func ParseTriage(content string) (Triage, error) {
	var t Triage
	if err := json.Unmarshal([]byte(content), &t); err != nil {
		return Triage{}, fmt.Errorf("triage response is not valid JSON: %w", err)
	}
	return t, nil
}
