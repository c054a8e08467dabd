// Package healthrisk interprets lifestyle survey answers into a deterministic
// risk score, level, and recommendation set. It never diagnoses; it only
// flags which fixed factors fired.
package healthrisk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/document"
	"github.com/plivedi/meddocs/internal/pipeline/stage"
	"github.com/plivedi/meddocs/internal/tables"
)

// profileSchema is the strict-parse contract: a flat object of survey
// answers. Values stay loosely typed since surveys arrive as strings,
// numbers, or booleans depending on the form that produced them.
const profileSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": ["string", "number", "integer", "boolean"]
	}
}`

var (
	schema = jsonschema.MustCompileString("profile.json", profileSchema)

	reDigits = regexp.MustCompile(`\d+`)

	truthy = map[string]bool{"yes": true, "true": true, "y": true, "1": true}

	lowExerciseWords = []string{"rarely", "never", "sedentary", "low"}
	poorDietWords    = []string{"high sugar", "high-sugar", "high fat", "high-fat", "junk", "fried", "processed"}
)

// Risk level cutpoints and the age bucket that contributes points. Fixed
// values; changing them changes the product's meaning.
const (
	levelModerateAt = 30
	levelHighAt     = 60
	ageFactorAt     = 55

	factorSmoking     = "smoking"
	factorPoorDiet    = "poor diet"
	factorLowExercise = "low exercise"
	factorAge         = "age 55+"
)

// Profile is the success payload.
type Profile struct {
	RiskScore       int      `json:"risk_score"`
	RiskLevel       string   `json:"risk_level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

type Pipeline struct {
	tbl *tables.Tables
}

func New() *Pipeline { return &Pipeline{tbl: tables.Get()} }

func (p *Pipeline) Problem() constants.Problem { return constants.ProblemHealthRisk }

func (p *Pipeline) Interpret(doc document.Raw, _ bool) stage.Outcome {
	answers, sources, entities := p.parseAnswers(doc.Text)

	expected := p.tbl.Health.ExpectedFields
	var missing []string
	for _, f := range expected {
		if _, ok := answers[f]; !ok {
			missing = append(missing, f)
		}
	}

	// Hard cutoff: more than half of the canonical fields absent means the
	// profile cannot be scored honestly.
	if len(missing)*2 > len(expected) {
		return stage.Outcome{
			Status: constants.StatusIncompleteProfile,
			Verdict: stage.Verdict{
				OK:     false,
				Reason: constants.ReasonIncompleteProfile,
			},
			Entities: entities,
		}
	}

	factors := p.extractFactors(answers)
	score := p.scoreRisk(factors)
	level := riskLevel(score)
	recs := p.recommendations(factors, level)

	fields := make([]stage.Field, 0, len(answers)+1)
	for _, key := range sortedKeys(answers) {
		fields = append(fields, stage.Field{
			Name:       key,
			Value:      answers[key],
			Source:     sources[key],
			Confidence: stage.ConfidenceHigh,
		})
	}
	fields = append(fields, stage.Field{
		Name: "risk_score", Value: score, Source: strings.Join(factors, ","), Confidence: stage.ConfidenceHigh,
	})

	return stage.Outcome{
		Payload: Profile{
			RiskScore:       score,
			RiskLevel:       level,
			Factors:         factors,
			Recommendations: recs,
		},
		Verdict:  stage.Verdict{OK: true},
		Entities: entities,
		Fields:   fields,
	}
}

// parseAnswers tries the strict structured parse first, then falls back to
// line-based "key: value" text. Keys are unified through the synonym table;
// unknown keys are kept out of the canonical answer set.
func (p *Pipeline) parseAnswers(text string) (map[string]any, map[string]string, []stage.Entity) {
	answers := map[string]any{}
	sources := map[string]string{}
	var entities []stage.Entity

	record := func(key string, value any) {
		canonical := p.tbl.CanonicalHealthField(key)
		if canonical == "" {
			return
		}
		if _, dup := answers[canonical]; dup {
			return
		}
		v, ok := coerceAnswer(canonical, value)
		if !ok {
			return
		}
		raw, start, end := answerSpan(text, key)
		answers[canonical] = v
		sources[canonical] = raw
		entities = append(entities, stage.Entity{
			Kind:  stage.KindSurveyField,
			Raw:   raw,
			Start: start,
			End:   end,
		})
	}

	if m, ok := strictParse(text); ok {
		for _, key := range sortedKeys(m) {
			record(key, m[key])
		}
		return answers, sources, entities
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		record(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return answers, sources, entities
}

// answerSpan locates the key token in the source text and extends the span
// through its value, stopping at the next separator. Raw is always a real
// substring of the source; when the key cannot be located the span covers the
// whole document.
func answerSpan(text, key string) (raw string, start, end int) {
	start = strings.Index(strings.ToLower(text), strings.ToLower(key))
	if start < 0 {
		return text, 0, len(text)
	}
	end = len(text)
	for i := start; i < len(text); i++ {
		if c := text[i]; c == ',' || c == '}' || c == '\n' {
			end = i
			break
		}
	}
	raw = strings.TrimRight(text[start:end], " \t'\"")
	return raw, start, start + len(raw)
}

// strictParse accepts JSON-looking input, tolerating trailing commas and
// single quotes, and validates the decoded document against the profile
// schema. Anything that fails here falls through to the line parser.
func strictParse(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	cleaned := strings.ReplaceAll(trimmed, "'", `"`)
	cleaned = regexp.MustCompile(`,\s*}`).ReplaceAllString(cleaned, "}")

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if err := schema.Validate(normalizeNumbers(v)); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// normalizeNumbers converts json.Number to float64 for schema validation.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeNumbers(val)
		}
		return out
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// coerceAnswer normalizes a raw answer into the canonical field's type.
func coerceAnswer(field string, value any) (any, bool) {
	switch field {
	case "age":
		switch t := value.(type) {
		case json.Number:
			i, err := t.Int64()
			if err != nil {
				f, ferr := t.Float64()
				if ferr != nil {
					return nil, false
				}
				i = int64(f)
			}
			return int(i), true
		case float64:
			return int(t), true
		case int:
			return t, true
		case string:
			m := reDigits.FindString(t)
			if m == "" {
				return nil, false
			}
			var age int
			fmt.Sscanf(m, "%d", &age)
			return age, true
		}
		return nil, false
	case "smoker":
		switch t := value.(type) {
		case bool:
			return t, true
		case string:
			return truthy[strings.ToLower(strings.TrimSpace(t))], true
		case json.Number:
			return t.String() == "1", true
		}
		return nil, false
	default:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
		if s == "" {
			return nil, false
		}
		return s, true
	}
}

func (p *Pipeline) extractFactors(answers map[string]any) []string {
	factors := []string{}

	if smoker, _ := answers["smoker"].(bool); smoker {
		factors = append(factors, factorSmoking)
	}
	if exercise, _ := answers["exercise"].(string); containsAny(exercise, lowExerciseWords) {
		factors = append(factors, factorLowExercise)
	}
	if diet, _ := answers["diet"].(string); containsAny(diet, poorDietWords) {
		factors = append(factors, factorPoorDiet)
	}
	if age, ok := answers["age"].(int); ok && age >= ageFactorAt {
		factors = append(factors, factorAge)
	}
	return factors
}

// scoreRisk is the additive rule table: base score plus a fixed contribution
// per fired factor, clamped to [0,100].
func (p *Pipeline) scoreRisk(factors []string) int {
	score := p.tbl.Health.BaseScore
	for _, f := range factors {
		score += p.tbl.Health.FactorWeights[f]
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func riskLevel(score int) string {
	switch {
	case score < levelModerateAt:
		return "low"
	case score < levelHighAt:
		return "moderate"
	default:
		return "high"
	}
}

func (p *Pipeline) recommendations(factors []string, level string) []string {
	recs := []string{}
	for _, f := range factors {
		if r, ok := p.tbl.Health.Recommendations[f]; ok {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 && level == "low" {
		recs = append(recs, p.tbl.Health.DefaultRecommendation)
	}
	return recs
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
