package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/panel"
	"github.com/celiabustea/revu/internal/redact"
	"github.com/celiabustea/revu/internal/review"
	"github.com/celiabustea/revu/internal/vcs"
	"go.uber.org/zap"
)

// ErrNoStagedChanges reports an empty (or fully filtered) staging area.
var ErrNoStagedChanges = errors.New("no staged changes to review")

// StagedOutcome is the result of a staged-changes review with the severity
// tallies the pre-commit gate acts on.
type StagedOutcome struct {
	Result        review.Result
	Files         []vcs.StagedFile
	CriticalCount int
	HighCount     int
}

// NeedsWarning reports whether the user should get an actionable choice
// instead of a silent notice.
func (s StagedOutcome) NeedsWarning() bool {
	return s.CriticalCount > 0 || s.HighCount > 0
}

// ReviewStaged reviews every staged file on the extension allow-list,
// strictly one at a time to bound load on the analysis service. A single
// file's failure aborts the whole run: a partial staged summary would be
// misleading for a pre-commit gate.
func (o *Orchestrator) ReviewStaged(ctx context.Context) (StagedOutcome, error) {
	staged, err := vcs.StagedFiles(ctx, o.git)
	if err != nil {
		return StagedOutcome{}, err
	}

	var reviewable []vcs.StagedFile
	for _, file := range staged {
		if _, ok := review.LanguageForPath(file.Path); ok {
			reviewable = append(reviewable, file)
		}
	}
	if len(reviewable) == 0 {
		return StagedOutcome{}, ErrNoStagedChanges
	}

	o.emit(panel.Event{Type: panel.EventReviewStarted, Message: fmt.Sprintf("Reviewing %d staged file(s)...", len(reviewable))})

	// Diagnostics are held back until every file has succeeded: an aborted
	// run must not leave partial annotations behind.
	results := make([]review.Result, 0, len(reviewable))
	for _, file := range reviewable {
		language, _ := review.LanguageForPath(file.Path)
		buf, err := editor.OpenBuffer(file.Path)
		if err != nil {
			o.emit(panel.Event{Type: panel.EventReviewError, Error: err.Error()})
			return StagedOutcome{}, fmt.Errorf("staged review aborted: %w", err)
		}
		result, err := o.service.Review(ctx, backend.ReviewRequest{
			FilePath:    file.Path,
			CodeContent: redact.CodeOptional(buf.Text(), o.redactEnabled),
			Language:    language,
			Guidelines:  redact.Guidelines(o.guidelines, o.redactEnabled),
		})
		if err != nil {
			o.log.Error("staged review aborted", zap.String("path", file.Path), zap.Error(err))
			o.emit(panel.Event{Type: panel.EventReviewError, Error: err.Error()})
			return StagedOutcome{}, fmt.Errorf("staged review of %s failed: %w", file.Path, err)
		}
		results = append(results, result)
	}
	for i, file := range reviewable {
		o.diags.Set(file.Path, results[i].Findings)
	}

	combined := review.Combine(results)
	o.mu.Lock()
	o.current = &combined
	o.currentDoc = nil
	o.mu.Unlock()
	o.saveHistory(ctx, combined)
	o.emit(panel.Event{Type: panel.EventReviewComplete, Review: &combined})

	counts := review.CountBySeverity(combined.Findings)
	outcome := StagedOutcome{
		Result:        combined,
		Files:         reviewable,
		CriticalCount: counts[review.SeverityCritical],
		HighCount:     counts[review.SeverityHigh],
	}
	o.log.Info("staged review complete",
		zap.Int("files", len(reviewable)),
		zap.Int("findings", len(combined.Findings)),
		zap.Int("critical", outcome.CriticalCount),
		zap.Int("high", outcome.HighCount))
	return outcome, nil
}
