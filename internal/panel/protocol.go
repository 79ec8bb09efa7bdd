package panel

import (
	"encoding/json"
	"fmt"

	"github.com/celiabustea/revu/internal/review"
)

// EventType tags host->UI notifications.
type EventType string

const (
	EventReviewStarted  EventType = "reviewStarted"
	EventReviewComplete EventType = "reviewComplete"
	EventReviewError    EventType = "reviewError"
	EventFixGenerating  EventType = "fixGenerating"
	EventFixGenerated   EventType = "fixGenerated"
	EventFixError       EventType = "fixError"
	EventFixAllComplete EventType = "fixAllComplete"
	EventCleared        EventType = "cleared"
)

// Event is one host->UI notification. Complete events echo the full result
// so a consumer can discard stale messages by payload identity rather than
// arrival order.
type Event struct {
	Type         EventType         `json:"type"`
	Message      string            `json:"message,omitempty"`
	Review       *review.Result    `json:"review,omitempty"`
	Error        string            `json:"error,omitempty"`
	FindingIndex int               `json:"finding_index,omitempty"`
	Fix          *review.FixResult `json:"fix,omitempty"`
	LineNumber   *int              `json:"line_number,omitempty"`
	Applied      int               `json:"applied,omitempty"`
	Total        int               `json:"total,omitempty"`
	Failures     []string          `json:"failures,omitempty"`
}

// CommandType tags UI->host commands.
type CommandType string

const (
	CommandClearDiagnostics CommandType = "clearDiagnostics"
	CommandGoToLine         CommandType = "goToLine"
	CommandReReview         CommandType = "reReview"
	CommandGenerateFix      CommandType = "generateFix"
	CommandApplyFix         CommandType = "applyFix"
	CommandGenerateFixAll   CommandType = "generateFixAll"
	CommandReviewStaged     CommandType = "reviewStaged"
	CommandReady            CommandType = "ready"
	CommandLog              CommandType = "log"
)

var knownCommands = map[CommandType]bool{
	CommandClearDiagnostics: true,
	CommandGoToLine:         true,
	CommandReReview:         true,
	CommandGenerateFix:      true,
	CommandApplyFix:         true,
	CommandGenerateFixAll:   true,
	CommandReviewStaged:     true,
	CommandReady:            true,
	CommandLog:              true,
}

// Command is one UI->host request.
type Command struct {
	Type         CommandType      `json:"type"`
	Line         int              `json:"line,omitempty"`
	FindingIndex int              `json:"finding_index,omitempty"`
	Language     string           `json:"language,omitempty"`
	CodeSnippet  string           `json:"code_snippet,omitempty"`
	Description  string           `json:"description,omitempty"`
	Suggestion   string           `json:"suggestion,omitempty"`
	FixCode      string           `json:"fix_code,omitempty"`
	OriginalCode string           `json:"original_code,omitempty"`
	LineNumber   *int             `json:"line_number,omitempty"`
	Findings     []review.Finding `json:"findings,omitempty"`
	Text         string           `json:"text,omitempty"`
}

// ParseCommand decodes a wire command and rejects unknown tags.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("failed to decode panel command: %w", err)
	}
	if !knownCommands[cmd.Type] {
		return Command{}, fmt.Errorf("unknown panel command: %q", cmd.Type)
	}
	return cmd, nil
}
