package verdict

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
)

// Stream selects which captured output a marker is matched against.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
	Any    Stream = "any"
)

// ParseStream converts a config value into a Stream. Empty means Any.
func ParseStream(s string) (Stream, error) {
	switch Stream(strings.ToLower(strings.TrimSpace(s))) {
	case "", Any:
		return Any, nil
	case Stdout:
		return Stdout, nil
	case Stderr:
		return Stderr, nil
	}
	return "", fmt.Errorf("unknown stream %q", s)
}

// Marker is a pattern whose presence in tool output points at a verdict.
type Marker struct {
	Name    string
	Pattern *regexp.Regexp
	Stream  Stream
	Verdict Verdict
}

// NewMarker compiles pattern into a Marker.
func NewMarker(name, pattern string, stream Stream, v Verdict) (Marker, error) {
	if v.priority() > FailedWithFindings.priority() {
		return Marker{}, fmt.Errorf("marker %q: verdict %s cannot be assigned by a marker", name, v)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Marker{}, fmt.Errorf("marker %q: invalid pattern: %w", name, err)
	}
	return Marker{Name: name, Pattern: re, Stream: stream, Verdict: v}, nil
}

// MustMarker is like NewMarker but panics on error. Use it for built-in tables only.
func MustMarker(name, pattern string, stream Stream, v Verdict) Marker {
	m, err := NewMarker(name, pattern, stream, v)
	if err != nil {
		panic(err)
	}
	return m
}

// Match is one occurrence of a marker in tool output.
type Match struct {
	Marker string   // Marker name
	Stream Stream   // Stream the text was found in
	Text   string   // Full matched text
	Groups []string // Capture groups, if the pattern has any
}

// Phrase returns the first capture group when present, otherwise the full match.
func (m Match) Phrase() string {
	if len(m.Groups) > 0 && m.Groups[0] != "" {
		return m.Groups[0]
	}
	return m.Text
}

// Classification is the result of applying a Table to an execution result.
type Classification struct {
	Verdict    Verdict
	Matches    []Match // Matches that decided the verdict
	Findings   []Match // Finding matches, kept even when a higher priority verdict won
	ExitStatus int
}

// Phrases returns the distinct phrases of the deciding matches, in order.
func (c Classification) Phrases() []string {
	var phrases []string
	seen := make(map[string]struct{})
	for _, m := range c.Matches {
		p := m.Phrase()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	return phrases
}

// Table is an ordered set of markers.
type Table []Marker

// With returns a new table with extra markers appended after the existing ones.
func (t Table) With(extra ...Marker) Table {
	out := make(Table, 0, len(t)+len(extra))
	out = append(out, t...)
	out = append(out, extra...)
	return out
}

// Classify turns an execution result into a verdict.
//
// Precedence: tool error markers, then target broken markers, then findings.
// Without any marker a zero exit passes and a nonzero exit is a tool error.
// A zero exit that still carries finding markers is reported as findings.
func (t Table) Classify(res executor.Result) Classification {
	byVerdict := make(map[Verdict][]Match)
	for _, m := range t.ordered() {
		byVerdict[m.Verdict] = append(byVerdict[m.Verdict], m.find(res)...)
	}

	c := Classification{
		ExitStatus: res.ExitStatus,
		Findings:   byVerdict[FailedWithFindings],
	}

	switch {
	case len(byVerdict[FailedToolError]) > 0:
		c.Verdict = FailedToolError
		c.Matches = byVerdict[FailedToolError]
	case len(byVerdict[FailedTargetBroken]) > 0:
		c.Verdict = FailedTargetBroken
		c.Matches = byVerdict[FailedTargetBroken]
	case len(byVerdict[FailedWithFindings]) > 0:
		c.Verdict = FailedWithFindings
		c.Matches = byVerdict[FailedWithFindings]
	case res.ExitStatus == 0 && !res.TimedOut:
		c.Verdict = Passed
	default:
		c.Verdict = FailedToolError
	}
	return c
}

// ordered returns the markers sorted by verdict priority, keeping table order within a verdict.
func (t Table) ordered() Table {
	out := make(Table, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Verdict.priority() < out[j].Verdict.priority()
	})
	return out
}

func (m Marker) find(res executor.Result) []Match {
	var matches []Match
	streams := []struct {
		name Stream
		text string
	}{
		{Stdout, res.Stdout},
		{Stderr, res.Stderr},
	}
	for _, s := range streams {
		if m.Stream != Any && m.Stream != s.name {
			continue
		}
		for _, sub := range m.Pattern.FindAllStringSubmatch(s.text, -1) {
			matches = append(matches, Match{
				Marker: m.Name,
				Stream: s.name,
				Text:   sub[0],
				Groups: sub[1:],
			})
		}
	}
	return matches
}
