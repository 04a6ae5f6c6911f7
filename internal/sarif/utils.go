package sarif

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scan-io-git/scanio-gate/internal/findings"
)

var levelOrder = map[string]int{
	"error":   0,
	"warning": 1,
	"note":    2,
	"none":    3,
}

// levelForSeverity maps a finding severity onto a SARIF level.
func levelForSeverity(severity string) string {
	switch findings.SeverityRank(severity) {
	case 0, 1:
		return "error"
	case 2:
		return "warning"
	case 3:
		return "note"
	}
	return "none"
}

func levelRank(level *string) int {
	if level == nil {
		return len(levelOrder)
	}
	if rank, ok := levelOrder[*level]; ok {
		return rank
	}
	return len(levelOrder)
}

// displaySeverity renders "HIGH" or "high" as "High".
func displaySeverity(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		return ""
	}
	return cases.Title(language.Und).String(normalized)
}

func calculateMD5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}
