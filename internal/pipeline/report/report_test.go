package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/document"
)

func TestInterpretPanel(t *testing.T) {
	p := New()
	text := "Hemoglobin 10.2 g/dL (Low), WBC 11200 /uL (High)"

	out := p.Interpret(document.NewDirect(text), false)
	require.True(t, out.Verdict.OK)

	rep, ok := out.Payload.(Report)
	require.True(t, ok)
	require.Len(t, rep.Tests, 2)

	hb := rep.Tests[0]
	assert.Equal(t, "Hemoglobin", hb.Name)
	assert.Equal(t, 10.2, hb.Value)
	assert.Equal(t, "g/dL", hb.Unit)
	assert.Equal(t, "low", hb.Status)
	assert.Equal(t, 12.0, hb.RefRange.Low)
	assert.Equal(t, 15.0, hb.RefRange.High)

	wbc := rep.Tests[1]
	assert.Equal(t, "WBC", wbc.Name)
	assert.Equal(t, 11200.0, wbc.Value)
	assert.Equal(t, "high", wbc.Status)

	assert.NotEmpty(t, rep.Summary)
	assert.Contains(t, rep.Summary, "hemoglobin")
	assert.Contains(t, rep.Summary, "wbc")
}

func TestGuardrailWhenNoTests(t *testing.T) {
	p := New()

	tests := []struct {
		name string
		text string
	}{
		{name: "gibberish", text: "xyz abc"},
		{name: "empty", text: ""},
		{name: "numbers without units", text: "scores 12 and 99 today"},
		{name: "unknown test name", text: "Cholesterol 250 mg/dL (High)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Interpret(document.NewDirect(tt.text), false)
			require.False(t, out.Verdict.OK)
			assert.Equal(t, constants.StatusUnprocessed, out.Status)
			assert.Equal(t, constants.ReasonNoTests, out.Verdict.Reason)
			assert.Nil(t, out.Payload)
		})
	}
}

func TestReferenceRangeClassification(t *testing.T) {
	p := New()

	tests := []struct {
		name       string
		text       string
		wantStatus string
	}{
		{name: "below range", text: "Hemoglobin 10.2 g/dL", wantStatus: "low"},
		{name: "inside range", text: "Hemoglobin 13.5 g/dL", wantStatus: "normal"},
		{name: "above range", text: "Hemoglobin 16.1 g/dL", wantStatus: "high"},
		{name: "equal to lower bound is normal", text: "Hemoglobin 12 g/dL", wantStatus: "normal"},
		{name: "equal to upper bound is normal", text: "Hemoglobin 15 g/dL", wantStatus: "normal"},
		{name: "explicit flag wins over range", text: "Hemoglobin 13.5 g/dL (Low)", wantStatus: "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Interpret(document.NewDirect(tt.text), false)
			require.True(t, out.Verdict.OK)

			rep := out.Payload.(Report)
			require.Len(t, rep.Tests, 1)
			assert.Equal(t, tt.wantStatus, rep.Tests[0].Status)
		})
	}
}

func TestSynonymAndThousandsSeparator(t *testing.T) {
	p := New()
	text := "Hb 10.2 g/dL\nWBC 11,200 /uL"

	out := p.Interpret(document.NewDirect(text), false)
	require.True(t, out.Verdict.OK)

	rep := out.Payload.(Report)
	require.Len(t, rep.Tests, 2)
	assert.Equal(t, "Hemoglobin", rep.Tests[0].Name)
	assert.Equal(t, 11200.0, rep.Tests[1].Value)
	assert.Equal(t, "high", rep.Tests[1].Status)
}

func TestUnresolvableLinesDroppedNotDefaulted(t *testing.T) {
	p := New()
	text := "Hemoglobin 13.5 g/dL\nMysteryMarker 42 mg/dL"

	out := p.Interpret(document.NewDirect(text), false)
	require.True(t, out.Verdict.OK)

	rep := out.Payload.(Report)
	require.Len(t, rep.Tests, 1, "unknown test must be dropped, not invented")
	assert.Equal(t, "Hemoglobin", rep.Tests[0].Name)
}

func TestAllNormalSummary(t *testing.T) {
	p := New()
	out := p.Interpret(document.NewDirect("Hemoglobin 13.5 g/dL\nGlucose 90 mg/dL"), false)
	require.True(t, out.Verdict.OK)

	rep := out.Payload.(Report)
	assert.Equal(t, "All available test values appear within the reference range provided.", rep.Summary)
}

func TestSummaryCapitalization(t *testing.T) {
	p := New()
	out := p.Interpret(document.NewDirect("Hemoglobin 10.2 g/dL (Low), WBC 11200 /uL (High)"), false)
	require.True(t, out.Verdict.OK)

	rep := out.Payload.(Report)
	assert.Equal(t, "Low hemoglobin, high wbc.", rep.Summary)
}
