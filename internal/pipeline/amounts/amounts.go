// Package amounts interprets billing text into typed currency amounts.
// Numeric tokens are classified by the nearest preceding keyword; a token
// with no keyword in range is discarded rather than guessed at.
package amounts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/document"
	"github.com/plivedi/meddocs/internal/normalize"
	"github.com/plivedi/meddocs/internal/pipeline/stage"
	"github.com/plivedi/meddocs/internal/tables"
)

// Numeric tokens must start with a real digit; OCR confusables are corrected
// inside the run afterwards.
var reAmountToken = regexp.MustCompile(`\d[\dOolISB]*(?:,[\dOolISB]{3})*(?:\.[\dOolISB]+)?%?`)

// lookbackWindow bounds how far before a numeric token a classifying keyword
// may appear.
const lookbackWindow = 30

// Amount is one classified figure with its provenance.
type Amount struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// Amounts is the success payload. Currency is null when no indicator was
// found in the document.
type Amounts struct {
	Currency *string  `json:"currency"`
	Amounts  []Amount `json:"amounts"`
}

type Pipeline struct {
	tbl *tables.Tables
}

func New() *Pipeline { return &Pipeline{tbl: tables.Get()} }

func (p *Pipeline) Problem() constants.Problem { return constants.ProblemAmounts }

func (p *Pipeline) Interpret(doc document.Raw, _ bool) stage.Outcome {
	entities := p.extract(doc.Text)

	var currency *string
	if code := normalize.CurrencyHint(doc.Text, p.tbl.Amounts.Currencies); code != "" {
		currency = &code
	}

	amounts := []Amount{}
	var fields []stage.Field
	seen := map[string]bool{}
	for _, e := range entities {
		if e.Kind != stage.KindAmountToken {
			continue
		}
		// Percentages are rates, not currency amounts.
		if normalize.IsPercentToken(e.Raw) {
			continue
		}
		value, ok := normalize.ParseLooseFloat(e.Raw)
		if !ok {
			continue
		}
		kind, ok := p.classify(doc.Text, e.Start)
		if !ok {
			continue
		}
		// Deduplicate by type, first occurrence wins.
		if seen[kind] {
			continue
		}
		seen[kind] = true

		source := sourceWindow(doc.Text, e.Start, e.End)
		amounts = append(amounts, Amount{Type: kind, Value: value, Source: source})
		fields = append(fields, stage.Field{
			Name: kind, Value: value, Source: source, Confidence: stage.ConfidenceHigh,
		})
	}

	if len(amounts) == 0 {
		return stage.Outcome{
			Status:   constants.StatusNoAmountsFound,
			Verdict:  stage.Verdict{OK: false, Reason: constants.ReasonNoAmounts},
			Entities: entities,
		}
	}

	return stage.Outcome{
		Payload:  Amounts{Currency: currency, Amounts: amounts},
		Verdict:  stage.Verdict{OK: true},
		Entities: entities,
		Fields:   fields,
	}
}

// extract records the currency indicator span (if any) and every numeric
// token span in appearance order.
func (p *Pipeline) extract(text string) []stage.Entity {
	var entities []stage.Entity

	if start, end, ok := normalize.CurrencySpan(text, p.tbl.Amounts.Currencies); ok {
		entities = append(entities, stage.Entity{
			Kind: stage.KindCurrency, Raw: text[start:end], Start: start, End: end,
		})
	}

	for _, loc := range reAmountToken.FindAllStringIndex(text, -1) {
		entities = append(entities, stage.Entity{
			Kind: stage.KindAmountToken, Raw: text[loc[0]:loc[1]], Start: loc[0], End: loc[1],
		})
	}
	return entities
}

// classify finds the nearest keyword preceding the token within the lookback
// window and maps it through the keyword table.
func (p *Pipeline) classify(text string, tokenStart int) (string, bool) {
	from := tokenStart - lookbackWindow
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:tokenStart])

	best := -1
	kind := ""
	for keyword, t := range p.tbl.Amounts.KeywordTypes {
		if idx := strings.LastIndex(window, keyword); idx > best {
			best, kind = idx, t
		}
	}
	if best < 0 {
		return "", false
	}
	return kind, true
}

// sourceWindow quotes the text surrounding a token for provenance.
func sourceWindow(text string, start, end int) string {
	from := start - 20
	if from < 0 {
		from = 0
	}
	to := end + 20
	if to > len(text) {
		to = len(text)
	}
	return fmt.Sprintf("text: '%s'", strings.TrimSpace(text[from:to]))
}
