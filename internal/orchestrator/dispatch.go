package orchestrator

import (
	"context"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/panel"
	"go.uber.org/zap"
)

// HandleCommand routes one UI command to the matching operation. Commands
// run strictly one at a time: the UI may dispatch from concurrent goroutines,
// and a re-review must never read the buffer while an apply is mid-edit.
// Unknown commands are logged and ignored; remote-call failures never escape
// as panics, only as UI events plus a log line.
func (o *Orchestrator) HandleCommand(ctx context.Context, cmd panel.Command) {
	o.cmdMu.Lock()
	defer o.cmdMu.Unlock()

	switch cmd.Type {
	case panel.CommandClearDiagnostics:
		o.Clear()

	case panel.CommandGoToLine:
		o.mu.Lock()
		doc := o.currentDoc
		o.mu.Unlock()
		if o.navigate != nil && doc != nil {
			o.navigate(doc.Path(), cmd.Line)
			return
		}
		o.log.Info("go to line", zap.Int("line", cmd.Line))

	case panel.CommandReReview:
		if _, err := o.ReReview(ctx); err != nil {
			o.log.Warn("re-review failed", zap.Error(err))
		}

	case panel.CommandGenerateFix:
		o.GenerateFix(ctx, cmd.FindingIndex, backend.FixRequest{
			Language:    cmd.Language,
			CodeSnippet: cmd.CodeSnippet,
			Description: cmd.Description,
			Suggestion:  cmd.Suggestion,
		}, cmd.LineNumber)

	case panel.CommandApplyFix:
		if err := o.ApplyFix(cmd.FixCode, cmd.OriginalCode, cmd.LineNumber); err != nil {
			o.log.Warn("apply fix failed", zap.Error(err))
			o.emit(panel.Event{Type: panel.EventFixError, FindingIndex: cmd.FindingIndex, Error: err.Error(), LineNumber: cmd.LineNumber})
			return
		}
		// Re-review only after the edit has committed and flushed, so the
		// fresh diagnostics describe the edited file.
		if _, err := o.ReReview(ctx); err != nil {
			o.log.Warn("re-review after apply failed", zap.Error(err))
		}

	case panel.CommandGenerateFixAll:
		if _, err := o.FixAll(ctx, cmd.Language, cmd.Findings); err != nil {
			o.log.Warn("fix-all failed", zap.Error(err))
			o.emit(panel.Event{Type: panel.EventFixError, Error: err.Error()})
		}

	case panel.CommandReviewStaged:
		if _, err := o.ReviewStaged(ctx); err != nil {
			o.log.Warn("staged review failed", zap.Error(err))
		}

	case panel.CommandReady:
		// The surface announces readiness after attach; replay the cached
		// result so it does not render empty.
		o.mu.Lock()
		surface := o.surface
		cached := o.current
		o.mu.Unlock()
		if surface != nil && cached != nil {
			surface.Post(panel.Event{Type: panel.EventReviewComplete, Review: cached})
		}

	case panel.CommandLog:
		o.log.Info("panel", zap.String("message", cmd.Text))

	default:
		o.log.Warn("unknown panel command", zap.String("type", string(cmd.Type)))
	}
}
