package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/panel"
	"github.com/celiabustea/revu/internal/review"
)

func intPtr(n int) *int { return &n }

// scriptedService returns canned results keyed by the base name of the
// requested path and records every review call.
type scriptedService struct {
	mu           sync.Mutex
	reviews      map[string]review.Result
	reviewErrs   map[string]error
	fixes        map[string]review.FixResult
	reviewCalls  []string
	reviewBodies []string
}

func (s *scriptedService) CheckHealth(ctx context.Context) (backend.Health, error) {
	return backend.Health{Status: "ok", ModelAvailable: true}, nil
}

func (s *scriptedService) Review(ctx context.Context, req backend.ReviewRequest) (review.Result, error) {
	s.mu.Lock()
	s.reviewCalls = append(s.reviewCalls, req.FilePath)
	s.reviewBodies = append(s.reviewBodies, req.CodeContent)
	s.mu.Unlock()
	key := filepath.Base(req.FilePath)
	if err, ok := s.reviewErrs[key]; ok {
		return review.Result{}, err
	}
	if result, ok := s.reviews[key]; ok {
		result.FilePath = req.FilePath
		return result, nil
	}
	return review.Result{FilePath: req.FilePath, Language: req.Language, Summary: "clean"}, nil
}

func (s *scriptedService) Languages(ctx context.Context) ([]backend.LanguageInfo, error) {
	return nil, nil
}

func (s *scriptedService) GenerateFix(ctx context.Context, req backend.FixRequest) review.FixResult {
	if fix, ok := s.fixes[req.CodeSnippet]; ok {
		return fix
	}
	return review.FixResult{Success: false, Error: "no fix scripted"}
}

func (s *scriptedService) PullModel(ctx context.Context, model string) error { return nil }

func (s *scriptedService) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]string, len(s.reviewCalls))
	copy(calls, s.reviewCalls)
	return calls
}

func (s *scriptedService) bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	bodies := make([]string, len(s.reviewBodies))
	copy(bodies, s.reviewBodies)
	return bodies
}

// fakeGit serves a fixed numstat listing.
type fakeGit struct {
	numstat string
}

func (f fakeGit) Run(ctx context.Context, args []string) ([]byte, error) {
	return []byte(f.numstat), nil
}

func eventTypes(events []panel.Event) []panel.EventType {
	types := make([]panel.EventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func TestPerformReviewLifecycle(t *testing.T) {
	service := &scriptedService{reviews: map[string]review.Result{
		"main.py": {
			Language:    "python",
			Summary:     "one issue",
			TotalIssues: 1,
			Findings:    []review.Finding{{Severity: review.SeverityHigh, Title: "x", LineNumber: intPtr(2)}},
		},
	}}
	orch := New(Options{Service: service})
	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)

	doc := editor.NewBuffer("main.py", "print(1)\nprint(2)")
	result, err := orch.ReviewDocument(context.Background(), doc, "python")
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}

	types := eventTypes(recorder.Events())
	if len(types) != 2 || types[0] != panel.EventReviewStarted || types[1] != panel.EventReviewComplete {
		t.Fatalf("unexpected event sequence: %v", types)
	}
	if current, ok := orch.Current(); !ok || current.Summary != "one issue" {
		t.Fatalf("expected current result stored")
	}
	if annotations := orch.Diagnostics().Get("main.py"); len(annotations) != 1 || annotations[0].Line != 1 {
		t.Fatalf("expected diagnostics published: %#v", annotations)
	}
}

func TestReviewErrorEmitsEvent(t *testing.T) {
	service := &scriptedService{reviewErrs: map[string]error{"bad.go": fmt.Errorf("service down")}}
	orch := New(Options{Service: service})
	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)

	_, err := orch.ReviewDocument(context.Background(), editor.NewBuffer("bad.go", "x"), "go")
	if err == nil {
		t.Fatalf("expected error")
	}
	last, ok := recorder.Last()
	if !ok || last.Type != panel.EventReviewError || !strings.Contains(last.Error, "service down") {
		t.Fatalf("expected reviewError event, got %#v", last)
	}
	if _, ok := orch.Current(); ok {
		t.Fatalf("failed review must not become current")
	}
}

func TestCacheReplayOnLateAttach(t *testing.T) {
	service := &scriptedService{reviews: map[string]review.Result{
		"a.py": {Language: "python", Summary: "cached"},
	}}
	orch := New(Options{Service: service})

	// Review completes while no surface is attached: events are dropped.
	if _, err := orch.ReviewDocument(context.Background(), editor.NewBuffer("a.py", "x"), "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)
	last, ok := recorder.Last()
	if !ok || last.Type != panel.EventReviewComplete || last.Review == nil || last.Review.Summary != "cached" {
		t.Fatalf("expected replay of cached result, got %#v", last)
	}
	if calls := service.calls(); len(calls) != 1 {
		t.Fatalf("replay must not re-invoke the service: %v", calls)
	}
}

func TestReadyCommandReplaysWithoutNewReview(t *testing.T) {
	service := &scriptedService{reviews: map[string]review.Result{
		"a.py": {Language: "python", Summary: "cached"},
	}}
	orch := New(Options{Service: service})
	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)
	if _, err := orch.ReviewDocument(context.Background(), editor.NewBuffer("a.py", "x"), "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	before := len(recorder.Events())
	orch.HandleCommand(context.Background(), panel.Command{Type: panel.CommandReady})
	events := recorder.Events()
	if len(events) != before+1 || events[len(events)-1].Type != panel.EventReviewComplete {
		t.Fatalf("expected one replayed completion, got %v", eventTypes(events))
	}
	if calls := service.calls(); len(calls) != 1 {
		t.Fatalf("ready must not re-invoke the service: %v", calls)
	}
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	orch := New(Options{Service: &scriptedService{}})
	orch.HandleCommand(context.Background(), panel.Command{Type: "explode"})
}

func TestClearIsIdempotent(t *testing.T) {
	service := &scriptedService{reviews: map[string]review.Result{
		"a.py": {Findings: []review.Finding{{Severity: review.SeverityLow}}},
	}}
	orch := New(Options{Service: service})
	if _, err := orch.ReviewDocument(context.Background(), editor.NewBuffer("a.py", "x"), "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	orch.Clear()
	orch.Clear()
	if orch.Diagnostics().Count() != 0 {
		t.Fatalf("expected zero annotations after clear")
	}
	if _, ok := orch.Current(); ok {
		t.Fatalf("expected no current result after clear")
	}
}

func writeStagedFixtures(t *testing.T) (string, fakeGit) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"first.py":  "print(1)\n",
		"second.go": "package main\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	numstat := fmt.Sprintf("3\t0\t%s\n2\t1\t%s\n1\t0\t%s\n",
		filepath.Join(dir, "first.py"),
		filepath.Join(dir, "second.go"),
		filepath.Join(dir, "notes.txt"), // filtered by the allow-list
	)
	return dir, fakeGit{numstat: numstat}
}

func TestReviewStagedAggregates(t *testing.T) {
	_, git := writeStagedFixtures(t)
	service := &scriptedService{reviews: map[string]review.Result{
		"first.py": {
			Language:    "python",
			TotalIssues: 2,
			Findings: []review.Finding{
				{Severity: review.SeverityCritical, Title: "a"},
				{Severity: review.SeverityCritical, Title: "b"},
			},
		},
		"second.go": {
			Language:    "go",
			TotalIssues: 2,
			Findings: []review.Finding{
				{Severity: review.SeverityHigh, Title: "c"},
				{Severity: review.SeverityLow, Title: "d"},
			},
		},
	}}
	orch := New(Options{Service: service, Git: git})
	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)

	outcome, err := orch.ReviewStaged(context.Background())
	if err != nil {
		t.Fatalf("staged review failed: %v", err)
	}
	if outcome.Result.FilePath != review.StagedFilePath {
		t.Fatalf("unexpected file path: %q", outcome.Result.FilePath)
	}
	if outcome.Result.TotalIssues != 4 || len(outcome.Result.Findings) != 4 {
		t.Fatalf("unexpected aggregation: %#v", outcome.Result)
	}
	if outcome.CriticalCount != 2 || outcome.HighCount != 1 {
		t.Fatalf("unexpected counts: %#v", outcome)
	}
	if !outcome.NeedsWarning() {
		t.Fatalf("expected the critical/high warning path")
	}
	if len(outcome.Files) != 2 {
		t.Fatalf("expected the allow-list to keep 2 files: %#v", outcome.Files)
	}
	last, _ := recorder.Last()
	if last.Type != panel.EventReviewComplete || last.Review.FilePath != review.StagedFilePath {
		t.Fatalf("expected combined result emitted, got %#v", last)
	}
}

func TestReviewStagedAbortsOnFileFailure(t *testing.T) {
	_, git := writeStagedFixtures(t)
	service := &scriptedService{
		reviews: map[string]review.Result{
			"first.py": {Findings: []review.Finding{{Severity: review.SeverityHigh, Title: "a"}}},
		},
		reviewErrs: map[string]error{"second.go": fmt.Errorf("boom")},
	}
	orch := New(Options{Service: service, Git: git})

	_, err := orch.ReviewStaged(context.Background())
	if err == nil || !strings.Contains(err.Error(), "staged review") {
		t.Fatalf("expected abort error, got %v", err)
	}
	if _, ok := orch.Current(); ok {
		t.Fatalf("partial staged results must not be salvaged")
	}
	// first.py succeeded before the abort, but its annotations must not
	// survive either.
	if count := orch.Diagnostics().Count(); count != 0 {
		t.Fatalf("expected no annotations after abort, got %d", count)
	}
}

func TestReviewStagedNoChanges(t *testing.T) {
	orch := New(Options{Service: &scriptedService{}, Git: fakeGit{numstat: "5\t0\tREADME.md\n"}})
	if _, err := orch.ReviewStaged(context.Background()); err != ErrNoStagedChanges {
		t.Fatalf("expected ErrNoStagedChanges, got %v", err)
	}
}

func TestFixAllTriggersReReview(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	if err := os.WriteFile(path, []byte("aaa\nbbb\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	service := &scriptedService{
		reviews: map[string]review.Result{
			"app.py": {Language: "python", Findings: []review.Finding{{Severity: review.SeverityLow, CodeSnippet: "aaa"}}},
		},
		fixes: map[string]review.FixResult{
			"aaa": {Success: true, FixCode: "AAA", Original: "aaa"},
		},
	}
	orch := New(Options{Service: service})
	recorder := panel.NewRecorder()
	orch.AttachSurface(recorder)

	doc, err := editor.OpenBuffer(path)
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	result, err := orch.ReviewDocument(context.Background(), doc, "python")
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}

	outcome, err := orch.FixAll(context.Background(), "python", result.Findings)
	if err != nil {
		t.Fatalf("fix all failed: %v", err)
	}
	if outcome.Applied != 1 || outcome.Total != 1 {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "AAA") {
		t.Fatalf("fix not flushed to disk: %q", string(data))
	}
	// 1 initial review + 1 re-review after applying fixes.
	if calls := service.calls(); len(calls) != 2 {
		t.Fatalf("expected re-review after fix-all: %v", calls)
	}
	types := eventTypes(recorder.Events())
	found := false
	for _, typ := range types {
		if typ == panel.EventFixAllComplete {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fixAllComplete event: %v", types)
	}
}

func TestFixAllWithNoFindings(t *testing.T) {
	orch := New(Options{Service: &scriptedService{}})
	doc := editor.NewBuffer("a.py", "x")
	if _, err := orch.ReviewDocument(context.Background(), doc, "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if _, err := orch.FixAll(context.Background(), "python", nil); err != ErrNoFixableFindings {
		t.Fatalf("expected ErrNoFixableFindings, got %v", err)
	}
}

func TestApplyFixCommandReReviewsEditedText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	if err := os.WriteFile(path, []byte("aaa\nbbb\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	service := &scriptedService{reviews: map[string]review.Result{
		"app.py": {Language: "python", Findings: []review.Finding{{Severity: review.SeverityLow, CodeSnippet: "aaa"}}},
	}}
	orch := New(Options{Service: service})

	doc, err := editor.OpenBuffer(path)
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	if _, err := orch.ReviewDocument(context.Background(), doc, "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	orch.HandleCommand(context.Background(), panel.Command{
		Type:         panel.CommandApplyFix,
		FixCode:      "AAA",
		OriginalCode: "aaa",
	})

	bodies := service.bodies()
	if len(bodies) != 2 {
		t.Fatalf("expected re-review after apply: %v", service.calls())
	}
	if !strings.Contains(bodies[1], "AAA") || strings.Contains(bodies[1], "aaa") {
		t.Fatalf("re-review must observe the edited text, got %q", bodies[1])
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "AAA") {
		t.Fatalf("fix not flushed to disk: %q", string(data))
	}
}

func TestConcurrentCommandsKeepBufferConsistent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	if err := os.WriteFile(path, []byte("aaa\nbbb\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	service := &scriptedService{reviews: map[string]review.Result{
		"app.py": {Language: "python"},
	}}
	orch := New(Options{Service: service})

	doc, err := editor.OpenBuffer(path)
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	if _, err := orch.ReviewDocument(context.Background(), doc, "python"); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	// The TUI dispatches from goroutines; commands must serialize so no
	// review ever reads a half-applied edit.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		orch.HandleCommand(context.Background(), panel.Command{
			Type:         panel.CommandApplyFix,
			FixCode:      "AAA",
			OriginalCode: "aaa",
		})
	}()
	go func() {
		defer wg.Done()
		orch.HandleCommand(context.Background(), panel.Command{Type: panel.CommandReReview})
	}()
	wg.Wait()

	before, after := "aaa\nbbb\n", "AAA\nbbb\n"
	for _, body := range service.bodies() {
		if body != before && body != after {
			t.Fatalf("review observed a torn buffer state: %q", body)
		}
	}
	if doc.Text() != after {
		t.Fatalf("expected applied edit to win: %q", doc.Text())
	}
}

func TestReviewSelection(t *testing.T) {
	service := &scriptedService{}
	orch := New(Options{Service: service})
	doc := editor.NewBuffer("sel.py", "one\ntwo\nthree\nfour")
	if _, err := orch.ReviewSelection(context.Background(), doc, "python", 2, 3); err != nil {
		t.Fatalf("selection review failed: %v", err)
	}
	calls := service.calls()
	if len(calls) != 1 || !strings.HasSuffix(calls[0], "sel.py:2-3") {
		t.Fatalf("unexpected call path: %v", calls)
	}
}
