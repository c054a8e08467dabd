// Package processor sequences Extractor -> Classifier -> Guardrail for a
// requested problem and assembles the final response.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/document"
	"github.com/plivedi/meddocs/internal/pipeline/amounts"
	"github.com/plivedi/meddocs/internal/pipeline/appointment"
	"github.com/plivedi/meddocs/internal/pipeline/healthrisk"
	"github.com/plivedi/meddocs/internal/pipeline/report"
	"github.com/plivedi/meddocs/internal/pipeline/stage"
)

// Pipeline is one domain's interpretation sequence. Implementations are pure
// functions of the raw document; re-running on identical text yields an
// identical outcome.
type Pipeline interface {
	Problem() constants.Problem
	Interpret(doc document.Raw, debug bool) stage.Outcome
}

type Processor struct {
	Logger *slog.Logger
	pipes  map[constants.Problem]Pipeline
}

// New wires the four domain pipelines. loc is the fixed timezone appointment
// phrases resolve against; now supplies the reference time (injectable for
// tests, defaults to time.Now).
func New(loc *time.Location, now func() time.Time, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	pipes := map[constants.Problem]Pipeline{
		constants.ProblemAppointment: appointment.New(loc, now),
		constants.ProblemHealthRisk:  healthrisk.New(),
		constants.ProblemReport:      report.New(),
		constants.ProblemAmounts:     amounts.New(),
	}
	return &Processor{Logger: logger, pipes: pipes}
}

// Run dispatches one document through the pipeline for problem and converts
// the outcome into the final result. Guardrail outcomes echo the opaque OCR
// metadata; debug additionally surfaces the intermediate entities and fields
// without altering the verdict.
func (p *Processor) Run(ctx context.Context, problem constants.Problem, doc document.Raw, debug bool) (stage.Result, error) {
	pipe, ok := p.pipes[problem]
	if !ok {
		return stage.Result{}, fmt.Errorf("unknown problem id %d", int(problem))
	}

	reqID := uuid.New()
	start := time.Now()
	out := pipe.Interpret(doc, debug)
	dur := time.Since(start)

	res := stage.Result{Payload: out.Payload}
	if out.Verdict.OK {
		res.Status = constants.StatusOK
		p.Logger.Info("pipeline.ok",
			"request_id", reqID,
			"problem", problem.String(),
			"origin", doc.Origin,
			"entities", len(out.Entities),
			"fields", len(out.Fields),
			"duration_ms", dur.Milliseconds(),
		)
	} else {
		res.Status = out.Status
		res.Reason = out.Verdict.Reason
		res.Payload = nil // a guardrailed result never carries normalized output
		res.OCRMeta = doc.OCRMeta
		p.Logger.Info("pipeline.guardrailed",
			"request_id", reqID,
			"problem", problem.String(),
			"origin", doc.Origin,
			"reason", out.Verdict.Reason,
			"duration_ms", dur.Milliseconds(),
		)
	}
	if debug {
		res.Debug = &stage.Debug{Entities: out.Entities, Fields: out.Fields}
	}
	return res, nil
}
