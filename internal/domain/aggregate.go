package domain

import "fmt"

type CheckClassification string

const (
	ChecksClear   CheckClassification = "clear"
	ChecksIssues  CheckClassification = "issues"
	ChecksPending CheckClassification = "pending"
)

// CheckSummary is the derived view of a record's background checks.
type CheckSummary struct {
	Total           int                 `json:"total"`
	Completed       int                 `json:"completed"`
	CompletionRatio float64             `json:"completion_ratio"`
	Classification  CheckClassification `json:"classification"`
	AdverseFields   []string            `json:"adverse_fields,omitempty"`
}

// AggregateChecks reduces a background-check map to a completion ratio and
// an outcome classification. Any adverse component classifies the whole set
// as issues; otherwise any pending component classifies it as pending. A
// record with no check components counts as fully complete and clear.
func AggregateChecks(checks map[string]CheckOutcome) (CheckSummary, error) {
	summary := CheckSummary{Total: len(checks), Classification: ChecksClear}
	if len(checks) == 0 {
		summary.CompletionRatio = 1
		return summary, nil
	}

	pending := false
	for field, outcome := range checks {
		if !outcome.Valid() {
			return CheckSummary{}, fmt.Errorf("%w: background check %q has outcome %q", ErrDataIntegrity, field, outcome)
		}
		if outcome.Terminal() {
			summary.Completed++
		} else {
			pending = true
		}
		if outcome.Adverse() {
			summary.AdverseFields = append(summary.AdverseFields, field)
		}
	}

	summary.CompletionRatio = float64(summary.Completed) / float64(summary.Total)
	switch {
	case len(summary.AdverseFields) > 0:
		summary.Classification = ChecksIssues
	case pending:
		summary.Classification = ChecksPending
	}
	return summary, nil
}
