// Package appointment interprets free-text booking requests into a
// department + date + time triple in the clinic's fixed timezone.
package appointment

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/document"
	"github.com/plivedi/meddocs/internal/normalize"
	"github.com/plivedi/meddocs/internal/pipeline/stage"
	"github.com/plivedi/meddocs/internal/tables"
)

var (
	reAbsoluteDate = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	reRelativeDate = regexp.MustCompile(`(?i)\b(?:today|tomorrow|(?:next|on)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)
	reTimeToken    = regexp.MustCompile(`(?i)\b(\d{1,2})(:\d{2})?\s*(am|pm)?\b`)

	amHints = []string{"morning"}
	pmHints = []string{"afternoon", "evening", "night", "noon", "lunch"}
)

// Appointment is the success payload.
type Appointment struct {
	Department     string `json:"department"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	TZ             string `json:"tz"`
	OriginalPhrase string `json:"original_phrase"`
}

type payload struct {
	Appointment Appointment `json:"appointment"`
}

type Pipeline struct {
	loc *time.Location
	now func() time.Time
	tbl *tables.Tables
}

func New(loc *time.Location, now func() time.Time) *Pipeline {
	return &Pipeline{loc: loc, now: now, tbl: tables.Get()}
}

func (p *Pipeline) Problem() constants.Problem { return constants.ProblemAppointment }

// Interpret runs extract -> normalize -> guardrail over one request. Any
// required span that is absent or unresolvable yields the matching guardrail
// reason; a partial appointment is never emitted.
func (p *Pipeline) Interpret(doc document.Raw, _ bool) stage.Outcome {
	entities := p.extract(doc.Text)

	guardrail := func(reason string) stage.Outcome {
		return stage.Outcome{
			Status:   constants.StatusNeedsClarification,
			Verdict:  stage.Verdict{OK: false, Reason: reason},
			Entities: entities,
		}
	}

	dept := findEntity(entities, stage.KindDepartment)
	if dept == nil {
		return guardrail(constants.ReasonUnknownDepartment)
	}
	datePhrase := findEntity(entities, stage.KindDatePhrase)
	if datePhrase == nil {
		return guardrail(constants.ReasonAmbiguousDate)
	}
	timePhrase := findEntity(entities, stage.KindTimePhrase)
	if timePhrase == nil {
		return guardrail(constants.ReasonAmbiguousTime)
	}

	canonical, _, _ := p.tbl.LookupDepartment(dept.Raw)

	day, err := normalize.ResolveDatePhrase(datePhrase.Raw, p.now().In(p.loc))
	if err != nil {
		return guardrail(constants.ReasonAmbiguousDate)
	}

	hour, minute, defaulted, err := normalize.ResolveTimePhrase(timePhrase.Raw, meridiemHint(doc.Text))
	if err != nil {
		return guardrail(constants.ReasonAmbiguousTime)
	}

	timeConf := stage.ConfidenceHigh
	if defaulted {
		timeConf = stage.ConfidenceLow
	}
	fields := []stage.Field{
		{Name: "department", Value: canonical, Source: dept.Raw, Confidence: stage.ConfidenceHigh},
		{Name: "appointment_date", Value: day.Format("2006-01-02"), Source: datePhrase.Raw, Confidence: stage.ConfidenceHigh},
		{Name: "appointment_time", Value: fmt.Sprintf("%02d:%02d", hour, minute), Source: timePhrase.Raw, Confidence: timeConf},
	}

	appt := Appointment{
		Department:     canonical,
		Date:           day.Format("2006-01-02"),
		Time:           fmt.Sprintf("%02d:%02d", hour, minute),
		TZ:             p.loc.String(),
		OriginalPhrase: strings.TrimSpace(datePhrase.Raw + " " + timePhrase.Raw),
	}

	return stage.Outcome{
		Payload:  payload{Appointment: appt},
		Verdict:  stage.Verdict{OK: true},
		Entities: entities,
		Fields:   fields,
	}
}

// extract locates the department, date phrase, and time phrase spans in
// appearance order. Absolute dates are tried before relative phrases; time
// candidates overlapping the date span are skipped so "26/09" never doubles
// as a time.
func (p *Pipeline) extract(text string) []stage.Entity {
	var entities []stage.Entity

	if _, matched, ok := p.tbl.LookupDepartment(text); ok {
		idx := strings.Index(strings.ToLower(text), strings.ToLower(matched))
		entities = append(entities, stage.Entity{
			Kind: stage.KindDepartment, Raw: matched, Start: idx, End: idx + len(matched),
		})
	}

	var dateSpan []int
	if loc := reAbsoluteDate.FindStringIndex(text); loc != nil {
		dateSpan = loc
	} else if loc := reRelativeDate.FindStringIndex(text); loc != nil {
		dateSpan = loc
	}
	if dateSpan != nil {
		entities = append(entities, stage.Entity{
			Kind: stage.KindDatePhrase, Raw: text[dateSpan[0]:dateSpan[1]], Start: dateSpan[0], End: dateSpan[1],
		})
	}

	if loc := findTimeSpan(text, dateSpan); loc != nil {
		entities = append(entities, stage.Entity{
			Kind: stage.KindTimePhrase, Raw: text[loc[0]:loc[1]], Start: loc[0], End: loc[1],
		})
	}

	return entities
}

// findTimeSpan picks the best time candidate: the first match carrying a
// colon or meridiem wins; a bare number is only accepted as a fallback.
func findTimeSpan(text string, dateSpan []int) []int {
	var bare []int
	for _, m := range reTimeToken.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if dateSpan != nil && start < dateSpan[1] && end > dateSpan[0] {
			continue
		}
		hasMinutes := m[4] >= 0
		hasMeridiem := m[6] >= 0
		if hasMinutes || hasMeridiem {
			return []int{start, end}
		}
		if bare == nil {
			bare = []int{start, end}
		}
	}
	return bare
}

func meridiemHint(text string) normalize.MeridiemHint {
	lower := strings.ToLower(text)
	for _, w := range amHints {
		if strings.Contains(lower, w) {
			return normalize.HintAM
		}
	}
	for _, w := range pmHints {
		if strings.Contains(lower, w) {
			return normalize.HintPM
		}
	}
	return normalize.HintNone
}

func findEntity(entities []stage.Entity, kind stage.EntityKind) *stage.Entity {
	for i := range entities {
		if entities[i].Kind == kind {
			return &entities[i]
		}
	}
	return nil
}
