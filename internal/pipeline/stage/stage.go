// Package stage defines the data carried between the extraction,
// normalization, and guardrail stages of every domain pipeline, plus the
// final discriminated result.
package stage

import "encoding/json"

// EntityKind tags a span found by a domain extractor.
type EntityKind string

const (
	KindDatePhrase  EntityKind = "date_phrase"
	KindTimePhrase  EntityKind = "time_phrase"
	KindDepartment  EntityKind = "department"
	KindSurveyField EntityKind = "survey_field"
	KindTestLine    EntityKind = "test_line"
	KindAmountToken EntityKind = "amount_token"
	KindCurrency    EntityKind = "currency_token"
)

// Entity is a raw span located in the source text. Entities are recorded in
// appearance order and never mutated.
type Entity struct {
	Kind  EntityKind `json:"kind"`
	Raw   string     `json:"raw"`
	Start int        `json:"start"`
	End   int        `json:"end"`
}

// Confidence is a coarse per-field signal; the guardrail stage never emits a
// low-confidence value into a success payload without an explicit rule.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Field is a typed value derived from one or more entities. Source keeps the
// provenance link back to the originating raw substring.
type Field struct {
	Name       string     `json:"field"`
	Value      any        `json:"value"`
	Source     string     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// Verdict is the guardrail decision over a document's normalized fields.
// A failing verdict always carries a reason and never partial output.
type Verdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Debug captures the intermediate stage outputs for diagnostics. Attaching
// it never alters the verdict.
type Debug struct {
	Entities []Entity `json:"entities"`
	Fields   []Field  `json:"fields"`
}

// Outcome is what a domain pipeline hands back to the orchestrator: either
// Payload (success) or a guardrail Status, plus the stage snapshots.
type Outcome struct {
	Payload  any
	Status   string
	Verdict  Verdict
	Entities []Entity
	Fields   []Field
}

// Result is the single value returned per invocation: exactly one of the
// success or guardrail variants.
type Result struct {
	Status  string         `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Payload any            `json:"-"`
	OCRMeta map[string]any `json:"-"`
	Debug   *Debug         `json:"-"`
}

// Guardrailed reports whether the result is the rejection variant.
func (r Result) Guardrailed() bool { return r.Status != "ok" }

// MarshalJSON flattens the domain payload into the top-level object so a
// success renders as {"status":"ok", <payload fields>...} and a guardrail as
// {"status":..., "reason":..., "ocr":...}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"status": r.Status}
	if r.Reason != "" {
		out["reason"] = r.Reason
	}
	if r.Payload != nil {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			out[k] = v
		}
	}
	if r.OCRMeta != nil {
		out["ocr"] = r.OCRMeta
	}
	if r.Debug != nil {
		out["debug"] = r.Debug
	}
	return json.Marshal(out)
}
