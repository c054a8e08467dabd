package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/plivedi/meddocs/internal/common"
)

var (
	reAbsoluteDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	reNextWeekday  = regexp.MustCompile(`^(?:next|on)\s+([a-z]+)$`)
	reTimePhrase   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ResolveDatePhrase turns a date phrase into a calendar date in now's
// location. Layered: absolute dd/mm/yyyy first, then relative phrases
// resolved against now. Weekday phrases pick the nearest future occurrence;
// "next friday" on a Friday means seven days out, never today.
func ResolveDatePhrase(phrase string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(phrase))

	if m := reAbsoluteDate.FindStringSubmatch(p); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("date %q out of range", phrase))
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// reject normalized overflow like 31/02
		if d.Day() != day || d.Month() != time.Month(month) {
			return time.Time{}, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("date %q does not exist", phrase))
		}
		return d, nil
	}

	switch p {
	case "today":
		return truncateToDay(now), nil
	case "tomorrow":
		return truncateToDay(now.AddDate(0, 0, 1)), nil
	}

	if m := reNextWeekday.FindStringSubmatch(p); m != nil {
		target, ok := weekdays[m[1]]
		if !ok {
			return time.Time{}, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("unknown weekday in %q", phrase))
		}
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return truncateToDay(now.AddDate(0, 0, ahead)), nil
	}

	return time.Time{}, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("unresolvable date phrase %q", phrase))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MeridiemHint carries contextual am/pm evidence found near a bare time
// phrase ("morning", "evening", ...).
type MeridiemHint int

const (
	HintNone MeridiemHint = iota
	HintAM
	HintPM
)

// ResolveTimePhrase parses a 12/24-hour time phrase into hour and minute.
//
// Meridiem rules, in order:
//   - explicit am/pm wins;
//   - hour 0 or 13..23 is taken as 24-hour;
//   - bare hour 12 is noon;
//   - bare hour 1..7 defaults to pm (clinic hours);
//   - bare hour 8..11 needs a contextual hint, otherwise the phrase is
//     ambiguous and the caller must guardrail rather than guess.
//
// defaulted reports that the pm default (not an explicit meridiem or hint)
// decided the hour, so callers can mark the value low-confidence.
func ResolveTimePhrase(phrase string, hint MeridiemHint) (hour, minute int, defaulted bool, err error) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	m := reTimePhrase.FindStringSubmatch(p)
	if m == nil {
		return 0, 0, false, common.WrapError(common.ErrParseFailure, fmt.Sprintf("unrecognized time phrase %q", phrase))
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("time %q out of range", phrase))
	}

	switch meridiem := m[3]; {
	case meridiem == "am":
		if hour == 12 {
			hour = 0
		}
	case meridiem == "pm":
		if hour != 12 {
			hour += 12
		}
		if hour > 23 {
			return 0, 0, false, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("time %q out of range", phrase))
		}
	case hour == 0 || hour >= 13:
		// unambiguous 24-hour form
	case hint == HintAM:
		if hour == 12 {
			hour = 0
		}
	case hint == HintPM:
		if hour != 12 {
			hour += 12
		}
	case hour == 12:
		// bare noon
	case hour <= 7:
		hour += 12
		defaulted = true
	default:
		return 0, 0, false, common.WrapError(common.ErrAmbiguousResolution, fmt.Sprintf("time %q has no resolvable meridiem", phrase))
	}

	return hour, minute, defaulted, nil
}
