package scans

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Finding is the subset of a gitleaks report entry leakscan cares about.
type Finding struct {
	RuleID      string `json:"RuleID"`
	Description string `json:"Description"`
	File        string `json:"File"`
	StartLine   int    `json:"StartLine"`
	Secret      string `json:"Secret,omitempty"`
	Match       string `json:"Match,omitempty"`
}

// ReadFindings parses a gitleaks JSON report.
func ReadFindings(path string) ([]Finding, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Finding
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse gitleaks report %s: %w", path, err)
	}
	return out, nil
}

// Redact drops the secret material so findings can leave the host.
func Redact(in []Finding) []Finding {
	out := make([]Finding, len(in))
	for i, f := range in {
		f.Secret = ""
		f.Match = ""
		out[i] = f
	}
	return out
}

// RuleCount is the number of findings for a single gitleaks rule.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// CountByRule groups findings by rule, most frequent first.
func CountByRule(findings []Finding) []RuleCount {
	m := map[string]int{}
	for _, f := range findings {
		m[f.RuleID]++
	}
	out := make([]RuleCount, 0, len(m))
	for id, n := range m {
		out = append(out, RuleCount{RuleID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
