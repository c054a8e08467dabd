package constants

// Status values returned on the wire. Stable strings; clients match on these
// exact values.
const (
	StatusOK                 = "ok"
	StatusNeedsClarification = "needs_clarification"
	StatusIncompleteProfile  = "incomplete_profile"
	StatusUnprocessed        = "unprocessed"
	StatusNoAmountsFound     = "no_amounts_found"
)

// Guardrail reason codes for the appointment pipeline.
const (
	ReasonAmbiguousDate     = "ambiguous_date"
	ReasonAmbiguousTime     = "ambiguous_time"
	ReasonUnknownDepartment = "unknown_department"
)

// Guardrail reasons for the remaining pipelines.
const (
	ReasonIncompleteProfile = "incomplete_profile"
	ReasonNoTests           = "no recognizable tests present in input"
	ReasonNoAmounts         = "document too noisy or no numeric tokens"
)
