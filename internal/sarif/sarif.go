package sarif

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-gate/internal/findings"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

// Report wraps a SARIF document built from scanner findings.
type Report struct {
	*sarif.Report
	logger hclog.Logger
}

// ToolMetadata describes the tool that produced the findings.
type ToolMetadata struct {
	Name           string
	Version        string
	InformationURI string
}

// NewReport creates an empty SARIF 2.1.0 report.
func NewReport(logger hclog.Logger) (*Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif report: %w", err)
	}
	return &Report{Report: report, logger: logger}, nil
}

// AddFindingsRun appends a run holding fs. Suppressed findings are recorded with a suppression entry.
func (r *Report) AddFindingsRun(tool ToolMetadata, fs []findings.Finding, target shared.RepositoryMetadata) {
	run := sarif.NewRunWithInformationURI(tool.Name, tool.InformationURI)
	if tool.Version != "" {
		run.Tool.Driver.WithVersion(tool.Version)
	}

	permalink := NewPermalinkBuilder(target)

	for _, f := range fs {
		rule := run.AddRule(f.RuleID).
			WithDescription(f.Title).
			WithProperties(sarif.Properties{
				"problem.severity": levelForSeverity(f.Severity),
				"tags":             tagValues(f.Tags),
			})
		for _, ref := range f.References {
			rule.WithHelpURI(ref.Value)
		}

		run.AddDistinctArtifact(f.FilePath)

		region := sarif.NewSimpleRegion(f.StartLine, f.EndLine)
		if f.StartColumn > 0 {
			region.WithStartColumn(f.StartColumn)
		}
		if f.Snippet != "" {
			region.WithSnippet(sarif.NewArtifactContent().WithText(f.Snippet))
		}

		result := run.CreateResultForRule(f.RuleID).
			WithLevel(levelForSeverity(f.Severity)).
			WithMessage(sarif.NewTextMessage(f.Description)).
			WithPartialFingerPrints(map[string]interface{}{
				"primaryLocationLineHash": calculateMD5Hash(fmt.Sprintf("%s:%s:%d:%s", f.RuleID, f.FilePath, f.StartLine, strings.TrimSpace(f.Snippet))),
			})
		result.AddLocation(sarif.NewLocationWithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.FilePath)).
				WithRegion(region),
		))

		props := sarif.Properties{
			"Severity": displaySeverity(f.Severity),
		}
		if f.Confidence != "" {
			props["Confidence"] = displaySeverity(f.Confidence)
		}
		if url := permalink(f.FilePath, f.StartLine, f.EndLine); url != "" {
			props["WebURL"] = url
		}
		result.Properties = props

		if f.Suppressed {
			result.AddSuppression(sarif.NewSuppression("inSource"))
		}
	}

	r.Report.AddRun(run)
	r.logger.Debug("sarif run added", "tool", tool.Name, "results", len(run.Results))
}

// SortResultsByLevel orders results of every run from error to none.
func (r *Report) SortResultsByLevel() {
	for _, run := range r.Runs {
		sort.SliceStable(run.Results, func(i, j int) bool {
			return levelRank(run.Results[i].Level) < levelRank(run.Results[j].Level)
		})
	}
}

// CollectSeverityInfo counts results per level over every run.
func (r *Report) CollectSeverityInfo() map[string]int {
	counts := make(map[string]int)
	for _, run := range r.Runs {
		for _, result := range run.Results {
			level := "none"
			if result.Level != nil {
				level = *result.Level
			}
			counts[level]++
		}
	}
	return counts
}

// Bytes renders the report as indented JSON.
func (r *Report) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.PrettyWrite(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode sarif report: %w", err)
	}
	return buf.Bytes(), nil
}

func tagValues(tags []findings.Property) []string {
	values := make([]string, 0, len(tags))
	for _, t := range tags {
		values = append(values, t.Value)
	}
	return values
}
