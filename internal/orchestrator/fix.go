package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/fixer"
	"github.com/celiabustea/revu/internal/panel"
	"github.com/celiabustea/revu/internal/redact"
	"github.com/celiabustea/revu/internal/review"
	"go.uber.org/zap"
)

// ErrNoFixableFindings reports a fix-all request with nothing to fix.
var ErrNoFixableFindings = errors.New("no findings with fixable content")

// GenerateFix asks the service for a corrected snippet for one finding.
// Failures come back inside the FixResult and as a fixError event.
func (o *Orchestrator) GenerateFix(ctx context.Context, findingIndex int, req backend.FixRequest, lineNumber *int) review.FixResult {
	o.emit(panel.Event{Type: panel.EventFixGenerating, FindingIndex: findingIndex})
	req.CodeSnippet = redact.CodeOptional(req.CodeSnippet, o.redactEnabled)
	fix := o.service.GenerateFix(ctx, req)
	if !fix.Success {
		o.log.Warn("fix generation failed", zap.Int("finding", findingIndex), zap.String("error", fix.Error))
		o.emit(panel.Event{Type: panel.EventFixError, FindingIndex: findingIndex, Error: fix.Error, LineNumber: lineNumber})
		return fix
	}
	o.emit(panel.Event{Type: panel.EventFixGenerated, FindingIndex: findingIndex, Fix: &fix, LineNumber: lineNumber})
	return fix
}

// ApplyFix applies one generated fix to the document under review and
// commits it to disk.
func (o *Orchestrator) ApplyFix(fixCode, originalCode string, lineNumber *int) error {
	o.mu.Lock()
	doc := o.currentDoc
	o.mu.Unlock()
	if doc == nil {
		return fmt.Errorf("no document under review")
	}
	if !o.engine.Apply(doc, fixCode, originalCode, lineNumber) {
		return fmt.Errorf("could not locate the code to replace in %s", doc.Path())
	}
	if err := doc.Flush(); err != nil {
		return err
	}
	o.log.Info("fix applied", zap.String("doc", doc.Path()))
	return nil
}

// FixAll generates and applies fixes for every finding, sequentially, then
// re-reviews the document when anything was applied so diagnostics reflect
// the edited file.
func (o *Orchestrator) FixAll(ctx context.Context, language string, findings []review.Finding) (fixer.BatchOutcome, error) {
	o.mu.Lock()
	doc := o.currentDoc
	current := o.current
	o.mu.Unlock()
	if doc == nil {
		return fixer.BatchOutcome{}, fmt.Errorf("no document under review")
	}
	if len(findings) == 0 {
		return fixer.BatchOutcome{}, ErrNoFixableFindings
	}
	if language == "" && current != nil {
		language = current.Language
	}

	outcome := o.engine.ApplyAll(ctx, doc, language, findings)
	if err := doc.Flush(); err != nil {
		return outcome, err
	}
	o.emit(panel.Event{
		Type:     panel.EventFixAllComplete,
		Applied:  outcome.Applied,
		Total:    outcome.Total,
		Failures: outcome.Failures,
	})

	if outcome.Applied > 0 {
		if _, err := o.ReviewDocument(ctx, doc, language); err != nil {
			o.log.Warn("re-review after fix-all failed", zap.Error(err))
		}
	}
	return outcome, nil
}
