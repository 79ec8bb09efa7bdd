package panel

import (
	"fmt"
	"strings"

	"github.com/celiabustea/revu/internal/review"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dispatcher delivers a UI command to the host side.
type Dispatcher func(Command)

type panelMode int

const (
	panelModeList panelMode = iota
	panelModeDetail
)

// EventMsg wraps a host event for the bubbletea runtime.
type EventMsg struct {
	Event Event
}

// pendingFix tracks one in-progress fix preview between "fix requested" and
// "fix applied/cancelled".
type pendingFix struct {
	FindingIndex int
	Original     string
	Fixed        string
	LineNumber   *int
}

type findingItem struct {
	index   int
	finding review.Finding
}

func (i findingItem) Title() string {
	line := ""
	if i.finding.Line() > 0 {
		line = fmt.Sprintf(" (line %d)", i.finding.Line())
	}
	return fmt.Sprintf("[%s] %s%s", i.finding.Severity, i.finding.Title, line)
}

func (i findingItem) Description() string {
	return fmt.Sprintf("%s: %s", i.finding.Category, i.finding.Suggestion)
}

func (i findingItem) FilterValue() string {
	return strings.ToLower(fmt.Sprintf("%s %s %s", i.finding.Severity, i.finding.Category, i.finding.Title))
}

type panelModel struct {
	dispatch Dispatcher
	list     list.Model
	mode     panelMode
	result   *review.Result
	status   string
	pending  *pendingFix
	width    int
	height   int
}

func newPanelModel(dispatch Dispatcher) panelModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	findings := list.New([]list.Item{}, delegate, 0, 0)
	findings.Title = "Findings"
	findings.SetShowStatusBar(false)
	findings.SetShowHelp(false)

	return panelModel{
		dispatch: dispatch,
		list:     findings,
		mode:     panelModeList,
		status:   "No review yet. Press r to request one.",
	}
}

func (m *panelModel) setResult(result *review.Result) {
	m.result = result
	m.pending = nil
	items := []list.Item{}
	if result != nil {
		for i, finding := range result.Findings {
			items = append(items, findingItem{index: i, finding: finding})
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(0)
	}
	switch {
	case result == nil:
		m.status = "Cleared."
	case len(result.Findings) == 0:
		m.status = fmt.Sprintf("No issues found in %s.", result.FilePath)
	default:
		counts := review.CountBySeverity(result.Findings)
		m.status = fmt.Sprintf("%s: %d finding(s), %d critical, %d high.",
			result.FilePath, len(result.Findings),
			counts[review.SeverityCritical], counts[review.SeverityHigh])
	}
}

func (m panelModel) selected() (findingItem, bool) {
	item, ok := m.list.SelectedItem().(findingItem)
	return item, ok
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) send(cmd Command) tea.Cmd {
	dispatch := m.dispatch
	return func() tea.Msg {
		if dispatch != nil {
			dispatch(cmd)
		}
		return nil
	}
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		listHeight := msg.Height - headerHeight - footerHeight - 2
		if listHeight < 4 {
			listHeight = 4
		}
		m.list.SetSize(msg.Width, listHeight)
		return m, nil

	case EventMsg:
		return m.applyEvent(msg.Event), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if m.mode == panelModeDetail {
			switch msg.String() {
			case "esc", "backspace":
				m.mode = panelModeList
				return m, nil
			}
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.selected(); ok {
				m.mode = panelModeDetail
				if item.finding.Line() > 0 {
					return m, m.send(Command{Type: CommandGoToLine, Line: item.finding.Line()})
				}
			}
			return m, nil
		case "r":
			m.status = "Requesting review..."
			return m, m.send(Command{Type: CommandReReview})
		case "c":
			return m, m.send(Command{Type: CommandClearDiagnostics})
		case "s":
			m.status = "Reviewing staged changes..."
			return m, m.send(Command{Type: CommandReviewStaged})
		case "f":
			if item, ok := m.selected(); ok && m.result != nil {
				m.status = fmt.Sprintf("Generating fix for finding %d...", item.index+1)
				return m, m.send(Command{
					Type:         CommandGenerateFix,
					FindingIndex: item.index,
					Language:     m.result.Language,
					CodeSnippet:  item.finding.CodeSnippet,
					Description:  item.finding.Description,
					Suggestion:   item.finding.Suggestion,
					LineNumber:   item.finding.LineNumber,
				})
			}
			return m, nil
		case "a":
			if m.pending != nil && m.pending.Fixed != "" {
				// One command only: the host re-reviews after the edit
				// commits, so a second dispatch here would race the apply.
				cmd := Command{
					Type:         CommandApplyFix,
					FindingIndex: m.pending.FindingIndex,
					FixCode:      m.pending.Fixed,
					OriginalCode: m.pending.Original,
					LineNumber:   m.pending.LineNumber,
				}
				m.pending = nil
				m.status = "Applying fix..."
				return m, m.send(cmd)
			}
			return m, nil
		case "A":
			if m.result != nil && len(m.result.Findings) > 0 {
				m.status = "Fixing all findings..."
				return m, m.send(Command{
					Type:     CommandGenerateFixAll,
					Language: m.result.Language,
					Findings: m.result.Findings,
				})
			}
			return m, nil
		}
	}

	if m.mode == panelModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m panelModel) applyEvent(event Event) panelModel {
	switch event.Type {
	case EventReviewStarted:
		m.status = event.Message
	case EventReviewComplete:
		m.setResult(event.Review)
		m.mode = panelModeList
	case EventReviewError:
		m.status = "Review failed: " + event.Error
	case EventFixGenerating:
		m.status = fmt.Sprintf("Generating fix for finding %d...", event.FindingIndex+1)
	case EventFixGenerated:
		if event.Fix != nil {
			m.pending = &pendingFix{
				FindingIndex: event.FindingIndex,
				Original:     event.Fix.Original,
				Fixed:        event.Fix.FixCode,
				LineNumber:   event.LineNumber,
			}
			m.status = fmt.Sprintf("Fix ready for finding %d. Press a to apply.", event.FindingIndex+1)
		}
	case EventFixError:
		m.status = fmt.Sprintf("Fix failed for finding %d: %s", event.FindingIndex+1, event.Error)
	case EventFixAllComplete:
		m.status = fmt.Sprintf("Applied %d/%d fixes (%d failed).", event.Applied, event.Total, len(event.Failures))
	case EventCleared:
		m.setResult(nil)
	}
	return m
}

func (m panelModel) View() string {
	header := m.headerView()
	footer := m.footerView()

	if m.mode == panelModeDetail {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.detailView(), footer)
	}

	content := m.list.View()
	if m.result != nil && len(m.result.Findings) == 0 {
		content = lipgloss.NewStyle().Bold(true).Render("No issues found!")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m panelModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("revu panel")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.status)
}

func (m panelModel) footerView() string {
	if m.mode == panelModeDetail {
		return "esc back • q quit"
	}
	return "enter detail • r re-review • s staged • f fix • a apply • A fix all • c clear • q quit"
}

func (m panelModel) detailView() string {
	item, ok := m.selected()
	if !ok {
		return "Nothing selected."
	}
	finding := item.finding
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", item.Title())
	fmt.Fprintf(&b, "Category: %s\n", finding.Category)
	if finding.SeverityReason != "" {
		fmt.Fprintf(&b, "Severity reason: %s\n", finding.SeverityReason)
	}
	if finding.EffortMinutes > 0 {
		fmt.Fprintf(&b, "Estimated effort: %d min\n", finding.EffortMinutes)
	}
	fmt.Fprintf(&b, "\n%s\n", finding.Description)
	fmt.Fprintf(&b, "\nSuggestion: %s\n", finding.Suggestion)
	if finding.BestPractice != "" {
		fmt.Fprintf(&b, "Best practice: %s\n", finding.BestPractice)
	}
	if finding.CodeSnippet != "" {
		fmt.Fprintf(&b, "\nCode:\n%s\n", finding.CodeSnippet)
	}
	if m.pending != nil && m.pending.FindingIndex == item.index && m.pending.Fixed != "" {
		fmt.Fprintf(&b, "\nProposed fix:\n%s\n", m.pending.Fixed)
	}
	if finding.DocumentationLink != "" {
		fmt.Fprintf(&b, "\nDocs: %s\n", finding.DocumentationLink)
	}
	return b.String()
}

// TUISurface forwards host events into a running bubbletea program.
type TUISurface struct {
	program *tea.Program
}

func (s *TUISurface) Post(event Event) {
	s.program.Send(EventMsg{Event: event})
}

// RunTUI starts the panel, attaches it as the orchestrator's surface, and
// blocks until the user quits.
func RunTUI(dispatch Dispatcher, attach func(Surface), detach func()) error {
	program := tea.NewProgram(newPanelModel(dispatch), tea.WithAltScreen())
	attach(&TUISurface{program: program})
	defer detach()
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("panel terminated abnormally: %w", err)
	}
	return nil
}
