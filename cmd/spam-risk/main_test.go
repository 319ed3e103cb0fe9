package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const request = `{
  "email": {
    "plainText": "Quarterly numbers attached.",
    "metadata": {"subject": "Report", "from": "Alice@Example.com", "to": ["bob@example.com"], "date": "2024-03-05T10:00:00Z"}
  },
  "technical": {"linkCount": 1, "spf": "pass"},
  "nlp": {"prediction": "ham"}
}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func historyFlags(t *testing.T) []string {
	return []string{"--history-backend", "file", "--history-path", filepath.Join(t.TempDir(), "history.json")}
}

func TestAnalyzeJSON(t *testing.T) {
	args := append([]string{"analyze", "--output", "json"}, historyFlags(t)...)
	out, err := run(t, request, args...)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "low", result["riskLevel"])
	assert.Equal(t, false, result["isSpam"])
	assert.NotEmpty(t, result["processingId"])
}

func TestAnalyzeStreamRecordsHistory(t *testing.T) {
	flags := historyFlags(t)
	args := append([]string{"analyze"}, flags...)
	out, err := run(t, request+"\n"+request, args...)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "=== Results ==="))

	out, err = run(t, "", append([]string{"history", "alice@example.com"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 records)")

	out, err = run(t, "", append([]string{"history"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com\n", out)
}

func TestAnalyzeRejectsInvalidRequest(t *testing.T) {
	args := append([]string{"analyze"}, historyFlags(t)...)
	_, err := run(t, `{"email": {"metadata": {"from": "", "date": "2024-03-05T10:00:00Z"}}}`, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_input")

	_, err = run(t, "", args...)
	assert.Error(t, err)
}

func TestAnalyzeWritesMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spam_risk.prom")
	args := append([]string{"analyze", "--metrics-textfile", path}, historyFlags(t)...)
	_, err := run(t, request, args...)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `spam_risk_emails_analyzed_total{risk_level="low"} 1`)
}

func TestPrune(t *testing.T) {
	flags := historyFlags(t)
	_, err := run(t, request, append([]string{"analyze"}, flags...)...)
	require.NoError(t, err)

	out, err := run(t, "", append([]string{"prune", "--retention-days", "1"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "Pruned 1 records older than 1 days\n", out)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "", "validate", "--history-backend", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Weights: technical=0.420 nlp=0.280 behavioral=0.300")
	assert.Contains(t, out, "Configuration is valid")

	_, err = run(t, "", "validate", "--history-backend", "tape")
	assert.Error(t, err)
}
