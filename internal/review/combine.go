package review

import "fmt"

// StagedFilePath names the synthetic result produced by a staged-changes review.
const StagedFilePath = "Staged Changes"

// Combine folds per-file results into one synthetic staged-changes result:
// findings concatenated in file order, total issues summed, summary
// synthesized, token usage dropped.
func Combine(results []Result) Result {
	combined := Result{
		FilePath: StagedFilePath,
		Language: "mixed",
		Findings: []Finding{},
	}
	for _, result := range results {
		combined.Findings = append(combined.Findings, result.Findings...)
		combined.TotalIssues += result.TotalIssues
	}
	counts := CountBySeverity(combined.Findings)
	combined.Summary = fmt.Sprintf(
		"Reviewed %d staged file(s): %d finding(s), %d critical, %d high.",
		len(results), len(combined.Findings), counts[SeverityCritical], counts[SeverityHigh],
	)
	return combined
}
