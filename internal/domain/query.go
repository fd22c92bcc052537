package domain

import (
	"sort"
	"strings"
)

type SortKey string

const (
	SortSubmittedDate      SortKey = "submitted_date"
	SortPriority           SortKey = "priority"
	SortExpectedCompletion SortKey = "expected_completion"
	SortRisk               SortKey = "risk"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortSubmittedDate, SortPriority, SortExpectedCompletion, SortRisk:
		return true
	}
	return false
}

// Filter holds conjunctive list criteria. Nil members match everything;
// FreeText is a case-insensitive substring match over candidate name,
// candidate email, job title, and client name.
type Filter struct {
	Status   *RecordStatus
	Level    *ClearanceLevel
	Priority *Priority
	FreeText string
}

func (f Filter) Matches(rec ClearanceRecord) bool {
	if f.Status != nil && rec.Status != *f.Status {
		return false
	}
	if f.Level != nil && rec.Level != *f.Level {
		return false
	}
	if f.Priority != nil && rec.Priority != *f.Priority {
		return false
	}
	if f.FreeText != "" {
		needle := strings.ToLower(f.FreeText)
		haystack := strings.ToLower(strings.Join([]string{
			rec.CandidateName,
			rec.CandidateEmail,
			rec.JobTitle,
			rec.ClientName,
		}, "\n"))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// SortRecords orders a result set in place. Default and fallback order is
// submitted date descending; every key sorts stably so records equal under
// the key keep their submitted-date order.
func SortRecords(recs []ClearanceRecord, key SortKey) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].SubmittedDate.After(recs[j].SubmittedDate)
	})
	switch key {
	case SortPriority:
		sort.SliceStable(recs, func(i, j int) bool {
			return priorityRank[recs[i].Priority] > priorityRank[recs[j].Priority]
		})
	case SortExpectedCompletion:
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].ExpectedCompletionDate.Before(recs[j].ExpectedCompletionDate)
		})
	case SortRisk:
		sort.SliceStable(recs, func(i, j int) bool {
			ri, _ := OverallRisk(recs[i].RiskFactors)
			rj, _ := OverallRisk(recs[j].RiskFactors)
			return ri.Outranks(rj)
		})
	}
}
