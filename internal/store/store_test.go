package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/celiabustea/revu/internal/review"
)

func TestSaveAndReadReviews(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "revu.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	result := review.Result{
		FilePath:    "main.py",
		Language:    "python",
		Summary:     "two issues",
		TotalIssues: 99, // deliberately wrong; counts must come from findings
		Findings: []review.Finding{
			{Severity: review.SeverityCritical, Title: "a"},
			{Severity: review.SeverityLow, Title: "b"},
		},
	}
	if err := st.SaveReview(ctx, result); err != nil {
		t.Fatalf("save review: %v", err)
	}
	if err := st.SaveReview(ctx, review.Result{FilePath: "other.go", Language: "go", Summary: "clean"}); err != nil {
		t.Fatalf("save review: %v", err)
	}

	records, err := st.RecentReviews(ctx, 10)
	if err != nil {
		t.Fatalf("recent reviews: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].FilePath != "other.go" {
		t.Fatalf("expected newest first, got %q", records[0].FilePath)
	}
	if records[1].CriticalCount != 1 || records[1].HighCount != 0 {
		t.Fatalf("unexpected counts: %#v", records[1])
	}

	last, err := st.LastReview(ctx, "main.py")
	if err != nil {
		t.Fatalf("last review: %v", err)
	}
	if len(last.Findings) != 2 || last.Findings[0].Title != "a" {
		t.Fatalf("unexpected payload roundtrip: %#v", last)
	}

	if _, err := st.LastReview(ctx, "missing.py"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
