// Package tables holds the immutable lookup data the pipelines depend on:
// department vocabulary, health-field synonyms and risk weights, lab test
// synonyms with reference ranges, and the amount keyword/currency maps.
// Everything is parsed once from the embedded YAML at process start.
package tables

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed tables.yaml
var rawTables []byte

// RefRange is the fixed low/high bound pair used to classify a lab value.
type RefRange struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
	Unit string  `yaml:"unit" json:"-"`
}

type HealthTables struct {
	ExpectedFields        []string           `yaml:"expected_fields"`
	Synonyms              map[string]string  `yaml:"synonyms"`
	BaseScore             int                `yaml:"base_score"`
	FactorWeights         map[string]int     `yaml:"factor_weights"`
	Recommendations       map[string]string  `yaml:"recommendations"`
	DefaultRecommendation string             `yaml:"default_recommendation"`
}

type LabTables struct {
	Synonyms  map[string]string   `yaml:"synonyms"`
	RefRanges map[string]RefRange `yaml:"ref_ranges"`
	Units     []string            `yaml:"units"`
}

type AmountTables struct {
	KeywordTypes map[string]string `yaml:"keyword_types"`
	Currencies   map[string]string `yaml:"currencies"`
}

type Tables struct {
	Departments map[string]string `yaml:"departments"`
	Health      HealthTables      `yaml:"health"`
	LabTests    LabTables         `yaml:"lab_tests"`
	Amounts     AmountTables      `yaml:"amounts"`

	// keys sorted longest-first so multi-word synonyms win over their prefixes
	// ("eye doctor" before "eye").
	departmentKeys []string
	labSynonymKeys []string
}

var loaded = mustLoad()

// Get returns the process-wide table set. Read-only after load.
func Get() *Tables { return loaded }

func mustLoad() *Tables {
	t, err := parse(rawTables)
	if err != nil {
		panic(fmt.Sprintf("tables: %v", err))
	}
	return t
}

func parse(raw []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal tables.yaml: %w", err)
	}
	if len(t.Departments) == 0 || len(t.LabTests.RefRanges) == 0 || len(t.Amounts.KeywordTypes) == 0 {
		return nil, fmt.Errorf("tables.yaml is missing required sections")
	}
	t.departmentKeys = sortedKeysLongestFirst(t.Departments)
	t.labSynonymKeys = sortedKeysLongestFirst(t.LabTests.Synonyms)
	return &t, nil
}

func sortedKeysLongestFirst(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// LookupDepartment scans lowered text for a department synonym and returns the
// canonical name plus the matched token.
func (t *Tables) LookupDepartment(text string) (canonical, matched string, ok bool) {
	lower := strings.ToLower(text)
	for _, key := range t.departmentKeys {
		if idx := strings.Index(lower, key); idx >= 0 {
			return t.Departments[key], text[idx : idx+len(key)], true
		}
	}
	return "", "", false
}

// CanonicalTestName resolves a raw lab test name via the synonym table,
// case- and spacing-insensitive.
func (t *Tables) CanonicalTestName(raw string) (string, bool) {
	needle := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if canonical, ok := t.LabTests.Synonyms[needle]; ok {
		return canonical, true
	}
	// A test name captured with trailing noise still resolves if a synonym
	// appears inside it ("Serum Creatinine" -> Creatinine).
	for _, key := range t.labSynonymKeys {
		if strings.Contains(needle, key) {
			return t.LabTests.Synonyms[key], true
		}
	}
	return "", false
}

// CanonicalHealthField maps a survey key (or one of its synonyms) to the
// canonical field name, or "" if the key is not recognized.
func (t *Tables) CanonicalHealthField(key string) string {
	k := strings.TrimSpace(strings.ToLower(key))
	for _, f := range t.Health.ExpectedFields {
		if k == f {
			return f
		}
	}
	if canonical, ok := t.Health.Synonyms[k]; ok {
		return canonical
	}
	return ""
}
