package diagnostics

import (
	"sync"

	"github.com/celiabustea/revu/internal/review"
)

// Tier is the overlay severity understood by the host.
type Tier string

const (
	TierError   Tier = "error"
	TierWarning Tier = "warning"
	TierInfo    Tier = "info"
)

// TierFor maps finding severities onto overlay tiers.
func TierFor(severity review.Severity) Tier {
	switch severity {
	case review.SeverityCritical, review.SeverityHigh:
		return TierError
	case review.SeverityMedium, review.SeverityLow:
		return TierWarning
	default:
		return TierInfo
	}
}

// Annotation is one host-rendered marker derived from a finding.
type Annotation struct {
	Line     int // 0-based anchor line
	Tier     Tier
	Title    string
	Message  string
	Category string
}

// Publisher owns the overlay annotations per document key. Replacing a
// document's set is atomic: the old set is discarded wholesale.
type Publisher struct {
	mu    sync.Mutex
	byDoc map[string][]Annotation
}

func NewPublisher() *Publisher {
	return &Publisher{byDoc: map[string][]Annotation{}}
}

func (p *Publisher) Set(docKey string, findings []review.Finding) {
	annotations := make([]Annotation, 0, len(findings))
	for _, finding := range findings {
		line := finding.Line() - 1
		if line < 0 {
			line = 0
		}
		annotations = append(annotations, Annotation{
			Line:     line,
			Tier:     TierFor(finding.Severity),
			Title:    finding.Title,
			Message:  finding.Description,
			Category: finding.Category,
		})
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byDoc[docKey] = annotations
}

func (p *Publisher) Clear(docKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byDoc, docKey)
}

func (p *Publisher) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byDoc = map[string][]Annotation{}
}

func (p *Publisher) Get(docKey string) []Annotation {
	p.mu.Lock()
	defer p.mu.Unlock()
	annotations := make([]Annotation, len(p.byDoc[docKey]))
	copy(annotations, p.byDoc[docKey])
	return annotations
}

// Count reports the number of annotated documents.
func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byDoc)
}
