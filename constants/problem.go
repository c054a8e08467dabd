package constants

import "fmt"

// Problem identifies one of the four document-interpretation pipelines.
type Problem int

const (
	ProblemAppointment Problem = 1
	ProblemHealthRisk  Problem = 2
	ProblemReport      Problem = 3
	ProblemAmounts     Problem = 4
)

func (p Problem) String() string {
	switch p {
	case ProblemAppointment:
		return "appointment"
	case ProblemHealthRisk:
		return "health_risk"
	case ProblemReport:
		return "report_simplifier"
	case ProblemAmounts:
		return "amount_detection"
	}
	return fmt.Sprintf("problem(%d)", int(p))
}

// ParseProblem validates a raw problem id from the request surface.
func ParseProblem(id int) (Problem, error) {
	if id < int(ProblemAppointment) || id > int(ProblemAmounts) {
		return 0, fmt.Errorf("problem_id must be between 1 and 4, got %d", id)
	}
	return Problem(id), nil
}
