package ai

import "context"

// Client summarises a redacted gitleaks report.
type Client interface {
	Triage(ctx context.Context, report string) (string, error)
}
