package fixer

import (
	"context"
	"strings"
	"testing"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/review"
)

func intPtr(n int) *int { return &n }

// fakeService returns scripted fix results keyed by code snippet.
type fakeService struct {
	fixes map[string]review.FixResult
}

func (f fakeService) CheckHealth(ctx context.Context) (backend.Health, error) {
	return backend.Health{Status: "ok"}, nil
}

func (f fakeService) Review(ctx context.Context, req backend.ReviewRequest) (review.Result, error) {
	return review.Result{FilePath: req.FilePath, Language: req.Language}, nil
}

func (f fakeService) Languages(ctx context.Context) ([]backend.LanguageInfo, error) {
	return nil, nil
}

func (f fakeService) GenerateFix(ctx context.Context, req backend.FixRequest) review.FixResult {
	if fix, ok := f.fixes[req.CodeSnippet]; ok {
		return fix
	}
	return review.FixResult{Success: false, Error: "no fix available"}
}

func (f fakeService) PullModel(ctx context.Context, model string) error { return nil }

func TestApplyPrefersExactMatch(t *testing.T) {
	engine := NewEngine(fakeService{}, nil)
	doc := editor.NewBuffer("x.py", "a = 1\nb = eval(data)\nc = 3")
	if !engine.Apply(doc, "b = int(data)", "b = eval(data)", intPtr(1)) {
		t.Fatalf("expected apply to succeed")
	}
	if strings.Contains(doc.Text(), "eval(data)") {
		t.Fatalf("original still present: %q", doc.Text())
	}
	// Line hint pointed at line 1, which must be untouched when the exact
	// match wins.
	if !strings.HasPrefix(doc.Text(), "a = 1\n") {
		t.Fatalf("exact match should ignore line hint: %q", doc.Text())
	}
}

func TestApplyFallsBackToLine(t *testing.T) {
	engine := NewEngine(fakeService{}, nil)
	doc := editor.NewBuffer("x.py", "one\ntwo\nthree")
	if !engine.Apply(doc, "TWO", "does not occur", intPtr(2)) {
		t.Fatalf("expected line fallback to succeed")
	}
	if doc.Text() != "one\nTWO\nthree" {
		t.Fatalf("unexpected text: %q", doc.Text())
	}
}

func TestApplyClampsLineHint(t *testing.T) {
	engine := NewEngine(fakeService{}, nil)
	doc := editor.NewBuffer("x.py", "only")
	if !engine.Apply(doc, "ONLY", "", intPtr(0)) {
		t.Fatalf("expected clamped fallback to succeed")
	}
	if doc.Text() != "ONLY" {
		t.Fatalf("unexpected text: %q", doc.Text())
	}
}

func TestApplyFailsWithoutTarget(t *testing.T) {
	engine := NewEngine(fakeService{}, nil)
	doc := editor.NewBuffer("x.py", "one\ntwo")
	if engine.Apply(doc, "X", "missing", nil) {
		t.Fatalf("expected failure with no match and no hint")
	}
	if doc.Text() != "one\ntwo" {
		t.Fatalf("failed apply must not edit: %q", doc.Text())
	}
}

func TestApplyAllIsolatesFailures(t *testing.T) {
	service := fakeService{fixes: map[string]review.FixResult{
		"aaa": {Success: true, FixCode: "AAA", Original: "aaa"},
		"bbb": {Success: false, Error: "model refused"},
		"ccc": {Success: true, FixCode: "CCC", Original: "ccc"},
	}}
	engine := NewEngine(service, nil)
	doc := editor.NewBuffer("x.py", "aaa\nbbb\nccc")
	findings := []review.Finding{
		{CodeSnippet: "aaa", LineNumber: intPtr(1)},
		{CodeSnippet: "bbb", LineNumber: intPtr(2)},
		{CodeSnippet: "ccc", LineNumber: intPtr(3)},
	}
	outcome := engine.ApplyAll(context.Background(), doc, "python", findings)
	if outcome.Applied != 2 || outcome.Total != 3 {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	if len(outcome.Failures) != 1 {
		t.Fatalf("expected exactly one failure, got %#v", outcome.Failures)
	}
	if !strings.Contains(outcome.Failures[0], "finding 2") {
		t.Fatalf("failure should name finding 2: %q", outcome.Failures[0])
	}
	if doc.Text() != "AAA\nbbb\nCCC" {
		t.Fatalf("unexpected text: %q", doc.Text())
	}
}

func TestApplyAllFallsBackToFindingSnippet(t *testing.T) {
	// The service omits the original; the finding's snippet locates the span.
	service := fakeService{fixes: map[string]review.FixResult{
		"needle": {Success: true, FixCode: "patched"},
	}}
	engine := NewEngine(service, nil)
	doc := editor.NewBuffer("x.py", "hay\nneedle\nhay")
	outcome := engine.ApplyAll(context.Background(), doc, "python", []review.Finding{
		{CodeSnippet: "needle"},
	})
	if outcome.Applied != 1 {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	if doc.Text() != "hay\npatched\nhay" {
		t.Fatalf("unexpected text: %q", doc.Text())
	}
}
