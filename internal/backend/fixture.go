package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/celiabustea/revu/internal/review"
)

// FixtureService serves canned responses from a fixture directory, standing
// in for the analysis service when REVU_MOCK is set.
type FixtureService struct {
	Root string
}

func NewFixtureService(root string) FixtureService {
	return FixtureService{Root: root}
}

func (f FixtureService) CheckHealth(ctx context.Context) (Health, error) {
	_ = ctx
	var health Health
	if err := f.read("health.json", &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

func (f FixtureService) Review(ctx context.Context, req ReviewRequest) (review.Result, error) {
	_ = ctx
	var result review.Result
	if err := f.read("review.json", &result); err != nil {
		return review.Result{}, err
	}
	result.FilePath = req.FilePath
	if req.Language != "" {
		result.Language = req.Language
	}
	return result, nil
}

func (f FixtureService) Languages(ctx context.Context) ([]LanguageInfo, error) {
	_ = ctx
	var payload struct {
		Languages []LanguageInfo `json:"languages"`
	}
	if err := f.read("languages.json", &payload); err != nil {
		return nil, err
	}
	return payload.Languages, nil
}

func (f FixtureService) GenerateFix(ctx context.Context, req FixRequest) review.FixResult {
	_ = ctx
	var result review.FixResult
	if err := f.read("fix.json", &result); err != nil {
		return review.FixResult{Success: false, Error: err.Error()}
	}
	if result.Original == "" {
		result.Original = req.CodeSnippet
	}
	return result
}

func (f FixtureService) PullModel(ctx context.Context, model string) error {
	_ = ctx
	_ = model
	return nil
}

func (f FixtureService) read(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(f.Root, name))
	if err != nil {
		return fmt.Errorf("no backend fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid backend fixture %s: %w", name, err)
	}
	return nil
}
