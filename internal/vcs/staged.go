package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner executes git for the active repository.
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

type GitRunner struct{}

func (r GitRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %v failed: %w\n%s", args, err, out.String())
	}
	return out.Bytes(), nil
}

// FixtureRunner serves recorded git output from a directory, for tests and
// mock mode.
type FixtureRunner struct {
	Root string
}

func NewFixtureRunner(root string) FixtureRunner {
	return FixtureRunner{Root: root}
}

func (f FixtureRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	_ = ctx
	key := strings.Join(args, " ")
	if strings.Contains(key, "--numstat") {
		return os.ReadFile(filepath.Join(f.Root, "staged_numstat.txt"))
	}
	return nil, fmt.Errorf("no git fixture for args: %s", key)
}

// StagedFile is one version-control-tracked file marked for the next commit.
type StagedFile struct {
	Path      string
	Additions int
	Deletions int
}

// StagedFiles enumerates staged changes with their line stats.
func StagedFiles(ctx context.Context, runner Runner) ([]StagedFile, error) {
	output, err := runner.Run(ctx, []string{"diff", "--cached", "--numstat"})
	if err != nil {
		return nil, fmt.Errorf("failed to list staged changes: %w", err)
	}
	return parseNumstat(string(output)), nil
}

// parseNumstat reads `git diff --numstat` output: one
// "<added>\t<deleted>\t<path>" line per file, "-" counts for binaries.
func parseNumstat(output string) []StagedFile {
	var files []StagedFile
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 || parts[2] == "" {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		deleted, _ := strconv.Atoi(parts[1])
		files = append(files, StagedFile{Path: parts[2], Additions: added, Deletions: deleted})
	}
	return files
}
