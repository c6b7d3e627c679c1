package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserPromptTruncates(t *testing.T) {
	small := GetUserPrompt("[]")
	assert.NotContains(t, small, "truncated")
	assert.True(t, strings.HasSuffix(small, "[]"))

	big := GetUserPrompt(strings.Repeat("x", MaxReportBytes+10))
	assert.Contains(t, big, "truncated")
	assert.Less(t, len(big), MaxReportBytes+200)
}

func TestParseTriage(t *testing.T) {
	got, err := ParseTriage(`{"summary":"two keys","severity":"high","rotate":["aws-access-token"]}`)
	require.NoError(t, err)
	assert.Equal(t, "high", got.Severity)
	assert.Equal(t, []string{"aws-access-token"}, got.Rotate)

	_, err = ParseTriage("not json")
	assert.Error(t, err)
}
