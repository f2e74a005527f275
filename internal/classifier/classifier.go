// Package classifier decides which channel messages are new alerts and
// derives their ticket summary.
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	celgo "github.com/google/cel-go/cel"

	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/message"
	"alertbridge/pkg/cel"
)

// Severity is the default label applied to every qualifying alert.
const Severity = constants.DefaultPriorityLabel

const (
	ReasonQualified    = "qualified"
	ReasonEmpty        = "empty"
	ReasonRecovered    = "recovered"
	ReasonNotTriggered = "not_triggered"
	ReasonSuppressed   = "suppressed"
)

var (
	triggeredWord   = regexp.MustCompile(`(?i)\btriggered\b`)
	triggeredPrefix = regexp.MustCompile(`(?i)triggered:`)
	linkMarkup      = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)
	lineBreak       = regexp.MustCompile(`\r?\n`)
)

type Result struct {
	Qualifies bool
	Reason    string
}

// Classify applies the fixed rules: recovery notices never qualify, and
// anything else needs the word "triggered".
func Classify(text string) Result {
	switch {
	case text == "":
		return Result{Reason: ReasonEmpty}
	case strings.Contains(strings.ToLower(text), "recovered"):
		return Result{Reason: ReasonRecovered}
	case triggeredWord.MatchString(text), strings.Contains(text, "Triggered:"):
		return Result{Qualifies: true, Reason: ReasonQualified}
	default:
		return Result{Reason: ReasonNotTriggered}
	}
}

// Summary picks the one-line ticket title. Attachment titles and fallbacks
// win over the canonical text.
func Summary(msg message.RawMessage, text string) string {
	if len(msg.Attachments) > 0 {
		for _, a := range msg.Attachments {
			if a.Title != "" && triggeredPrefix.MatchString(a.Title) {
				return Sanitize(a.Title)
			}
			if a.Fallback != "" && triggeredPrefix.MatchString(a.Fallback) {
				return Sanitize(a.Fallback)
			}
		}
		for _, a := range msg.Attachments {
			if a.Title != "" {
				return Sanitize(a.Title)
			}
		}
	}

	return summaryFromText(text)
}

func summaryFromText(text string) string {
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	for _, l := range lines {
		stripped := StripLinks(l)
		if loc := triggeredPrefix.FindStringIndex(stripped); loc != nil {
			return Sanitize(stripped[loc[0]:])
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return Sanitize(StripLinks(lines[0]))
}

// StripLinks replaces <url|label> markup with its label.
func StripLinks(s string) string {
	return linkMarkup.ReplaceAllString(s, "$2")
}

// Sanitize collapses whitespace to single spaces and truncates to the
// tracker's summary length in runes.
func Sanitize(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > constants.MaxSummaryLength {
		return string(runes[:constants.MaxSummaryLength])
	}
	return s
}

type rule struct {
	name    string
	program celgo.Program
}

// Decision is the full verdict for one message.
type Decision struct {
	Result
	Summary  string
	Severity string
	// Rule names the suppression rule that dropped the message.
	Rule string
}

// Classifier wraps Classify with optional CEL suppression rules.
type Classifier struct {
	evaluator *cel.Evaluator
	rules     []rule
	severity  string
}

// New compiles the suppression rules. An empty severity means Severity.
func New(rules []config.SuppressRule, severity string) (*Classifier, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}

	if severity == "" {
		severity = Severity
	}

	c := &Classifier{evaluator: evaluator, severity: severity}
	for _, r := range rules {
		program, err := evaluator.CompileFilter(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("suppress rule %q: %w", r.Name, err)
		}
		c.rules = append(c.rules, rule{name: r.Name, program: program})
	}

	return c, nil
}

// Decide classifies text, then runs the suppression rules over qualifying
// messages. A rule that fails to evaluate is returned as an error and the
// message is treated as not suppressed.
func (c *Classifier) Decide(ctx context.Context, channel string, msg message.RawMessage, text string) (Decision, error) {
	d := Decision{Result: Classify(text)}
	if !d.Qualifies {
		return d, nil
	}

	in := cel.Input{
		Text:           text,
		Channel:        channel,
		TS:             msg.TS,
		HasAttachments: len(msg.Attachments) > 0,
	}

	var evalErr error
	for _, r := range c.rules {
		suppressed, err := c.evaluator.EvaluateFilter(ctx, r.program, in)
		if err != nil {
			evalErr = fmt.Errorf("suppress rule %q: %w", r.name, err)
			continue
		}
		if suppressed {
			return Decision{Result: Result{Reason: ReasonSuppressed}, Rule: r.name}, nil
		}
	}

	d.Summary = Summary(msg, text)
	d.Severity = c.severity
	return d, evalErr
}
