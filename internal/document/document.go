// Package document defines the raw input handed to the interpretation
// pipelines by the text-acquisition step.
package document

// Origin tags where the raw text came from.
type Origin string

const (
	OriginDirectText   Origin = "direct_text"
	OriginOCRExtracted Origin = "ocr_extracted"
)

// Raw is an immutable snapshot of one document's text. OCRMeta is an opaque
// pass-through from the acquisition collaborator; the pipelines never inspect
// its internals, they only echo it back in guardrail/debug payloads.
type Raw struct {
	Text    string         `json:"text"`
	Origin  Origin         `json:"origin"`
	OCRMeta map[string]any `json:"ocr_meta,omitempty"`
}

// NewDirect wraps user-supplied text.
func NewDirect(text string) Raw {
	return Raw{Text: text, Origin: OriginDirectText}
}

// NewExtracted wraps text produced by the OCR collaborator.
func NewExtracted(text string, meta map[string]any) Raw {
	return Raw{Text: text, Origin: OriginOCRExtracted, OCRMeta: meta}
}
