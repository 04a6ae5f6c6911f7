package verdict

import (
	"fmt"
	"strings"
)

// Verdict is the classified outcome of one scan.
type Verdict string

const (
	Passed             Verdict = "PASSED"
	FailedWithFindings Verdict = "FAILED_WITH_FINDINGS"
	FailedToolError    Verdict = "FAILED_TOOL_ERROR"
	FailedTargetBroken Verdict = "FAILED_TARGET_BROKEN"
	Skipped            Verdict = "SKIPPED"
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	return string(v)
}

// IsPassed reports whether the verdict lets the scan pass.
func (v Verdict) IsPassed() bool {
	return v == Passed
}

// IsFailure reports whether the verdict is one of the failed states.
func (v Verdict) IsFailure() bool {
	switch v {
	case FailedWithFindings, FailedToolError, FailedTargetBroken:
		return true
	}
	return false
}

// priority orders the marker verdicts; a lower value wins.
func (v Verdict) priority() int {
	switch v {
	case FailedToolError:
		return 0
	case FailedTargetBroken:
		return 1
	case FailedWithFindings:
		return 2
	}
	return 3
}

// Parse converts a verdict name as found in config files ("tool_error", "FAILED_TOOL_ERROR", ...) into a Verdict.
func Parse(s string) (Verdict, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch norm {
	case "PASSED", "PASS":
		return Passed, nil
	case "FAILED_WITH_FINDINGS", "WITH_FINDINGS", "FINDINGS":
		return FailedWithFindings, nil
	case "FAILED_TOOL_ERROR", "TOOL_ERROR":
		return FailedToolError, nil
	case "FAILED_TARGET_BROKEN", "TARGET_BROKEN":
		return FailedTargetBroken, nil
	case "SKIPPED", "SKIP":
		return Skipped, nil
	}
	return "", fmt.Errorf("unknown verdict %q", s)
}
