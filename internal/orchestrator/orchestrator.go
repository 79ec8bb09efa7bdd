// Package orchestrator drives the review request lifecycle and owns the
// single authoritative review result.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/diagnostics"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/fixer"
	"github.com/celiabustea/revu/internal/panel"
	"github.com/celiabustea/revu/internal/redact"
	"github.com/celiabustea/revu/internal/review"
	"github.com/celiabustea/revu/internal/vcs"
	"go.uber.org/zap"
)

// History receives completed reviews. Satisfied by store.Store.
type History interface {
	SaveReview(ctx context.Context, result review.Result) error
}

// Navigator reveals a document location in the host. Optional.
type Navigator func(path string, line int)

type Options struct {
	Service       backend.Service
	Diagnostics   *diagnostics.Publisher
	Git           vcs.Runner
	History       History // may be nil
	Navigator     Navigator
	Guidelines    []string
	RedactEnabled bool
	Log           *zap.Logger
}

// Orchestrator owns the current review result and mediates every command
// between the UI surface, the analysis service, and the document. Its
// lifetime is the editing session; there is no ambient state.
type Orchestrator struct {
	service       backend.Service
	diags         *diagnostics.Publisher
	engine        *fixer.Engine
	git           vcs.Runner
	history       History
	navigate      Navigator
	guidelines    []string
	redactEnabled bool
	log           *zap.Logger

	// cmdMu serializes dispatched commands so an edit fully commits before
	// any later command reads the document buffer.
	cmdMu sync.Mutex

	mu         sync.Mutex
	current    *review.Result
	currentDoc *editor.Buffer
	surface    panel.Surface
}

func New(opts Options) *Orchestrator {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	diags := opts.Diagnostics
	if diags == nil {
		diags = diagnostics.NewPublisher()
	}
	return &Orchestrator{
		service:       opts.Service,
		diags:         diags,
		engine:        fixer.NewEngine(opts.Service, log),
		git:           opts.Git,
		history:       opts.History,
		navigate:      opts.Navigator,
		guidelines:    opts.Guidelines,
		redactEnabled: opts.RedactEnabled,
		log:           log,
	}
}

func (o *Orchestrator) Diagnostics() *diagnostics.Publisher {
	return o.diags
}

// Current returns a copy of the authoritative review result, if any.
func (o *Orchestrator) Current() (review.Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return review.Result{}, false
	}
	return *o.current, true
}

// AttachSurface connects the UI surface and replays the latest completed
// result so a late-starting panel catches up without a fresh service call.
func (o *Orchestrator) AttachSurface(surface panel.Surface) {
	o.mu.Lock()
	o.surface = surface
	cached := o.current
	o.mu.Unlock()
	if surface != nil && cached != nil {
		surface.Post(panel.Event{Type: panel.EventReviewComplete, Review: cached})
	}
}

// DetachSurface disconnects the UI surface; later notifications are dropped.
func (o *Orchestrator) DetachSurface() {
	o.mu.Lock()
	o.surface = nil
	o.mu.Unlock()
}

// emit delivers an event to the surface if one is attached. Unattached
// surfaces drop the event; the latest completed result is cached in state
// and replayed on attach, so nothing else is queued.
func (o *Orchestrator) emit(event panel.Event) {
	o.mu.Lock()
	surface := o.surface
	o.mu.Unlock()
	if surface == nil {
		o.log.Debug("panel not attached, dropping event", zap.String("type", string(event.Type)))
		return
	}
	surface.Post(event)
}

// ReviewDocument reviews the whole document.
func (o *Orchestrator) ReviewDocument(ctx context.Context, doc *editor.Buffer, languageID string) (review.Result, error) {
	language := review.NormalizeLanguage(o.resolveLanguage(doc.Path(), languageID))
	return o.performReview(ctx, doc, doc.Text(), language, doc.Path())
}

// ReviewSelection reviews an inclusive 1-based line range of the document.
func (o *Orchestrator) ReviewSelection(ctx context.Context, doc *editor.Buffer, languageID string, startLine, endLine int) (review.Result, error) {
	selection, err := doc.Slice(startLine, endLine)
	if err != nil {
		return review.Result{}, err
	}
	language := review.NormalizeLanguage(o.resolveLanguage(doc.Path(), languageID))
	path := fmt.Sprintf("%s:%d-%d", doc.Path(), startLine, endLine)
	return o.performReview(ctx, doc, selection, language, path)
}

func (o *Orchestrator) resolveLanguage(path, languageID string) string {
	if languageID != "" {
		return languageID
	}
	if language, ok := review.LanguageForPath(path); ok {
		return language
	}
	return "plaintext"
}

// performReview is the shared lifecycle: announce, call the service, store
// state, publish diagnostics, notify the surface. The surface is notified
// only after the state mutation has completed.
func (o *Orchestrator) performReview(ctx context.Context, doc *editor.Buffer, code, language, path string) (review.Result, error) {
	o.emit(panel.Event{Type: panel.EventReviewStarted, Message: fmt.Sprintf("Reviewing %s...", path)})

	result, err := o.service.Review(ctx, backend.ReviewRequest{
		FilePath:    path,
		CodeContent: redact.CodeOptional(code, o.redactEnabled),
		Language:    language,
		Guidelines:  redact.Guidelines(o.guidelines, o.redactEnabled),
	})
	if err != nil {
		o.log.Error("review failed", zap.String("path", path), zap.Error(err))
		o.emit(panel.Event{Type: panel.EventReviewError, Error: err.Error()})
		return review.Result{}, fmt.Errorf("review of %s failed: %w", path, err)
	}

	o.mu.Lock()
	o.current = &result
	o.currentDoc = doc
	o.mu.Unlock()
	if doc != nil {
		o.diags.Set(doc.Path(), result.Findings)
	}
	o.saveHistory(ctx, result)
	o.emit(panel.Event{Type: panel.EventReviewComplete, Review: &result})
	o.log.Info("review complete",
		zap.String("path", path),
		zap.Int("findings", len(result.Findings)))
	return result, nil
}

func (o *Orchestrator) saveHistory(ctx context.Context, result review.Result) {
	if o.history == nil {
		return
	}
	if err := o.history.SaveReview(ctx, result); err != nil {
		o.log.Warn("failed to save review history", zap.Error(err))
	}
}

// Clear drops the current result and all published diagnostics.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.current = nil
	o.currentDoc = nil
	o.mu.Unlock()
	o.diags.ClearAll()
	o.emit(panel.Event{Type: panel.EventCleared})
}

// ReReview runs a fresh full review of the document under review.
func (o *Orchestrator) ReReview(ctx context.Context) (review.Result, error) {
	o.mu.Lock()
	doc := o.currentDoc
	current := o.current
	o.mu.Unlock()
	if doc == nil {
		return review.Result{}, fmt.Errorf("no document under review")
	}
	language := ""
	if current != nil {
		language = current.Language
	}
	return o.ReviewDocument(ctx, doc, language)
}
