package fixer

import (
	"context"
	"fmt"
	"strings"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/review"
	"go.uber.org/zap"
)

// Engine locates and replaces code for generated fixes. All document
// mutations go through Apply, one at a time.
type Engine struct {
	service backend.Service
	log     *zap.Logger
}

func NewEngine(service backend.Service, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{service: service, log: log}
}

// Apply performs one fix. Exact literal matching is tried first because it
// is insensitive to line drift from earlier edits in the same batch; the
// line-hint fallback covers snippets the service normalized. On failure no
// partial edit is made.
func (e *Engine) Apply(doc editor.Document, fixCode string, originalCode string, lineHint *int) bool {
	if strings.TrimSpace(originalCode) != "" {
		if idx := strings.Index(doc.Text(), originalCode); idx >= 0 {
			if err := doc.ReplaceRange(idx, idx+len(originalCode), fixCode); err == nil {
				return true
			}
			e.log.Warn("exact-match replacement failed to commit", zap.String("doc", doc.Path()))
		}
	}
	if lineHint != nil {
		line := *lineHint - 1
		if line < 0 {
			line = 0
		}
		if err := doc.ReplaceLine(line, fixCode); err == nil {
			return true
		}
		e.log.Warn("line fallback out of range", zap.String("doc", doc.Path()), zap.Int("line", *lineHint))
	}
	return false
}

// BatchOutcome summarizes one ApplyAll pass. Failures carry 1-based finding
// indexes so the log reads like the panel's finding list.
type BatchOutcome struct {
	Applied  int
	Total    int
	Failures []string
}

// ApplyAll generates and applies a fix per finding, strictly sequentially:
// each step must observe the document state left by the previous one. One
// finding's failure never aborts the batch.
func (e *Engine) ApplyAll(ctx context.Context, doc editor.Document, language string, findings []review.Finding) BatchOutcome {
	outcome := BatchOutcome{Total: len(findings)}
	runSequential(findings, func(i int, finding review.Finding) {
		fix := e.service.GenerateFix(ctx, backend.FixRequest{
			Language:    language,
			CodeSnippet: finding.CodeSnippet,
			Description: finding.Description,
			Suggestion:  finding.Suggestion,
		})
		if !fix.Success || fix.FixCode == "" {
			reason := fix.Error
			if reason == "" {
				reason = "service returned no fix"
			}
			outcome.Failures = append(outcome.Failures, fmt.Sprintf("finding %d: %s", i+1, reason))
			e.log.Warn("fix generation failed", zap.Int("finding", i+1), zap.String("reason", reason))
			return
		}
		original := fix.Original
		if original == "" {
			original = finding.CodeSnippet
		}
		if e.Apply(doc, fix.FixCode, original, finding.LineNumber) {
			outcome.Applied++
			return
		}
		outcome.Failures = append(outcome.Failures, fmt.Sprintf("finding %d: could not locate target code", i+1))
		e.log.Warn("fix target not found", zap.Int("finding", i+1), zap.String("doc", doc.Path()))
	})
	return outcome
}

// runSequential processes items one at a time, awaiting full completion of
// each step before starting the next, so edits to the shared document never
// overlap.
func runSequential[T any](items []T, step func(index int, item T)) {
	for i, item := range items {
		step(i, item)
	}
}
