package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"gopkg.in/yaml.v3"
)

// Format is an output format of the renderer
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates an output format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// Renderer writes analysis results and sender histories to a writer
type Renderer struct {
	w       io.Writer
	format  Format
	verbose bool
}

// NewRenderer creates a new renderer. verbose adds the per-stream details to text output.
func NewRenderer(w io.Writer, format Format, verbose bool) *Renderer {
	return &Renderer{w: w, format: format, verbose: verbose}
}

// RenderResult writes one analysis result
func (r *Renderer) RenderResult(result *core.SpamAnalysisResult) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(result)
	case FormatYAML:
		return r.writeYAML(result)
	default:
		return r.resultText(result)
	}
}

// RenderHistory writes the stored records of one sender
func (r *Renderer) RenderHistory(sender string, records []core.EmailRecord) error {
	doc := struct {
		Sender  string             `json:"sender"`
		Records []core.EmailRecord `json:"records"`
	}{Sender: sender, Records: records}

	switch r.format {
	case FormatJSON:
		return r.writeJSON(doc)
	case FormatYAML:
		return r.writeYAML(doc)
	}

	p := &printer{w: r.w}
	p.printf("=== History of %s (%d records) ===\n", sender, len(records))
	for _, rec := range records {
		p.printf("%s  %s %02dh  rcpt=%-3d hash=%s  %s\n",
			rec.Date.UTC().Format(time.RFC3339), rec.DayOfWeek, rec.HourOfDay,
			rec.RecipientsCount, rec.ContentHash, rec.Subject)
	}
	return p.err
}

// RenderSenders writes the list of senders with stored history
func (r *Renderer) RenderSenders(senders []string) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(senders)
	case FormatYAML:
		return r.writeYAML(senders)
	}
	p := &printer{w: r.w}
	for _, s := range senders {
		p.printf("%s\n", s)
	}
	return p.err
}

func (r *Renderer) resultText(result *core.SpamAnalysisResult) error {
	p := &printer{w: r.w}

	p.printf("=== Results ===\n")
	p.printf("Risk level: %s\n", result.RiskLevel)
	p.printf("Overall score: %.4f\n", result.OverallScore)
	p.printf("Is spam: %t\n", result.IsSpam)
	p.printf("Penalty score: %.2f\n", result.FinalScore)
	p.printf("Summary: %s\n", result.Summary)
	if len(result.Recommendations) > 0 {
		p.printf("\n=== Recommendations ===\n")
		for _, rec := range result.Recommendations {
			p.printf("- %s\n", rec)
		}
	}

	if r.verbose {
		d := result.Details
		p.printf("\n=== Details ===\n")
		p.printf("Technical: %.2f %s\n", d.Technical.Score, ruleList(d.Technical.Rules))
		p.printf("NLP: %.2f %s prediction=%s\n", d.NLP.Score, ruleList(d.NLP.Rules), d.NLP.Prediction)
		p.printf("Behavior: %.4f (source %s)\n", d.Behavior.Score, d.Behavior.Source)
		if b := d.Behavior.Result; b != nil {
			p.printf("  Sender: %s new=%t first seen %s\n", b.From, b.IsNewSender, b.FirstSeenDate.UTC().Format(time.RFC3339))
			p.printf("  Volume: %d in 24h, %d in 7d, burst ratio %.2f, avg recipients %.2f\n",
				b.EmailCountLast24h, b.EmailCountLast7d, b.BurstRatio, b.AvgRecipients)
			p.printf("  Content similarity %.2f, subject change %.2f, time anomaly %.2f\n",
				b.ContentSimilarityRate, b.SubjectChangeRate, b.TimeAnomalyScore)
			p.printf("  Reputation %.2f, mass mailing %t\n", b.ReputationScore, b.MassMailingIndicator)
		}
	}

	p.printf("\nProcessing ID: %s\n", result.ProcessingID)
	p.printf("Analyzed at: %s\n", result.AnalyzedAt.UTC().Format(time.RFC3339))
	return p.err
}

func ruleList(rules []string) string {
	if len(rules) == 0 {
		return "[]"
	}
	return "[" + strings.Join(rules, ", ") + "]"
}

func (r *Renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through JSON so that the YAML keys match the JSON field names
func (r *Renderer) writeYAML(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert result to YAML: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow style inherited from the JSON source
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
