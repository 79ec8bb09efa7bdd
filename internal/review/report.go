package review

import (
	"fmt"
	"io"
	"strings"
)

const reportRule = "----------------------------------------------------------------------"

// WriteReport renders a severity-grouped text report for one result.
func WriteReport(w io.Writer, result Result) {
	fmt.Fprintf(w, "CODE REVIEW REPORT: %s\n", result.FilePath)
	fmt.Fprintf(w, "Language: %s\n", result.Language)
	fmt.Fprintf(w, "Total issues: %d\n", result.TotalIssues)
	fmt.Fprintln(w, reportRule)

	if len(result.Findings) == 0 {
		fmt.Fprintln(w, "No issues found!")
	} else {
		grouped := map[Severity][]Finding{}
		for _, finding := range result.Findings {
			grouped[finding.Severity] = append(grouped[finding.Severity], finding)
		}
		for _, severity := range Order {
			findings := grouped[severity]
			if len(findings) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(string(severity)), len(findings))
			fmt.Fprintln(w, reportRule)
			for i, finding := range findings {
				fmt.Fprintf(w, "%d. %s\n", i+1, finding.Title)
				fmt.Fprintf(w, "   Category: %s\n", finding.Category)
				if finding.Line() > 0 {
					fmt.Fprintf(w, "   Line: %d\n", finding.Line())
				}
				fmt.Fprintf(w, "   %s\n", finding.Description)
				fmt.Fprintf(w, "   -> %s\n", finding.Suggestion)
				if finding.CodeSnippet != "" {
					fmt.Fprintf(w, "   Code: %s\n", finding.CodeSnippet)
				}
				fmt.Fprintln(w)
			}
		}
	}

	fmt.Fprintln(w, reportRule)
	fmt.Fprintf(w, "Summary: %s\n", result.Summary)
	if result.TokenUsage != nil {
		fmt.Fprintf(w, "Tokens: %d prompt, %d completion, %d total\n",
			result.TokenUsage.PromptTokens, result.TokenUsage.CompletionTokens, result.TokenUsage.TotalTokens)
	}
}
