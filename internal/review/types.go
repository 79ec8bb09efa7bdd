package review

// Severity levels reported by the analysis service, ordered worst first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Order lists severities worst first, for grouping and sorting.
var Order = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

func (s Severity) Known() bool {
	for _, level := range Order {
		if s == level {
			return true
		}
	}
	return false
}

type Finding struct {
	LineNumber        *int               `json:"line_number"`
	Severity          Severity           `json:"severity"`
	Category          string             `json:"category"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Suggestion        string             `json:"suggestion"`
	CodeSnippet       string             `json:"code_snippet,omitempty"`
	FixCode           string             `json:"fix_code,omitempty"`
	SeverityReason    string             `json:"severity_reason,omitempty"`
	BestPractice      string             `json:"best_practice,omitempty"`
	Examples          []string           `json:"examples,omitempty"`
	DocumentationLink string             `json:"documentation_link,omitempty"`
	EffortMinutes     int                `json:"effort_minutes,omitempty"`
	Dimensions        map[string]float64 `json:"dimensions,omitempty"`
}

// Line returns the 1-based line number, or 0 when the service gave none.
func (f Finding) Line() int {
	if f.LineNumber == nil {
		return 0
	}
	return *f.LineNumber
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the complete outcome of reviewing one logical unit of code.
// TotalIssues comes from the service and may disagree with len(Findings);
// any local counting must go through CountBySeverity instead.
type Result struct {
	FilePath    string      `json:"file_path"`
	Language    string      `json:"language"`
	Findings    []Finding   `json:"findings"`
	Summary     string      `json:"summary"`
	TotalIssues int         `json:"total_issues"`
	TokenUsage  *TokenUsage `json:"token_usage,omitempty"`
}

// CountBySeverity tallies findings by severity, ignoring TotalIssues.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := map[Severity]int{}
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	return counts
}

type FixResult struct {
	Success  bool   `json:"success"`
	FixCode  string `json:"fix_code,omitempty"`
	Original string `json:"original,omitempty"`
	Error    string `json:"error,omitempty"`
}
