package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPassed(t *testing.T) {
	r := NewBuilder().
		AddInfo(InfoStdout, "ok").
		Pass().
		Build()

	assert.True(t, r.Passed)
	assert.Empty(t, r.Errors)
	assert.Equal(t, "ok", r.Info[InfoStdout])
	assert.Contains(t, r.Info, InfoStderr)
}

func TestBuilderErrorsForceFailure(t *testing.T) {
	r := NewBuilder().
		Pass().
		AddError("gosec exited with status %d", 3).
		Build()

	assert.False(t, r.Passed)
	assert.Equal(t, []string{"gosec exited with status 3"}, r.ErrorMessages())
}

func TestBuildReturnsSnapshot(t *testing.T) {
	b := NewBuilder().AddInfo(InfoStdout, "first")
	r := b.Build()

	b.AddInfo(InfoStdout, "second").AddError("late error")

	assert.Equal(t, "first", r.Info[InfoStdout])
	assert.Empty(t, r.Errors)
}

func TestLogsRendering(t *testing.T) {
	r := NewBuilder().
		Fail().
		AddError("gosec reported 1 issue(s)").
		Log("findings", "Potential hardcoded credentials").
		Log("stderr", "   ").
		Log("stdout", "{\"Issues\": []}\n").
		Build()

	assert.Contains(t, r.Logs, "== errors\n- gosec reported 1 issue(s)\n")
	assert.Contains(t, r.Logs, "== findings\nPotential hardcoded credentials\n")
	assert.Contains(t, r.Logs, "== stdout\n{\"Issues\": []}\n")
	assert.NotContains(t, r.Logs, "== stderr")
}

func TestToJSONWireShape(t *testing.T) {
	r := NewBuilder().
		AddInfo(InfoStderr, "No packages found").
		AddError("0 lines of code were scanned").
		Build()

	data, err := r.ToJSON()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.ElementsMatch(t, []string{"passed", "info", "errors", "logs"}, keys(raw))
	assert.Equal(t, false, raw["passed"])
	info := raw["info"].(map[string]interface{})
	assert.Equal(t, "No packages found", info["stderr"])
	errs := raw["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "0 lines of code were scanned", errs[0].(map[string]interface{})["message"])
}

func TestZeroReportKeepsWireShape(t *testing.T) {
	data, err := json.Marshal(Report{Passed: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"passed":true,"info":{},"errors":[],"logs":""}`, string(data))
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
