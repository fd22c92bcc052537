package domain

type ClearanceLevel string

const (
	LevelBasic     ClearanceLevel = "basic"
	LevelSecret    ClearanceLevel = "secret"
	LevelTopSecret ClearanceLevel = "top_secret"
	LevelCosmic    ClearanceLevel = "cosmic"
)

var clearanceLevelRank = map[ClearanceLevel]int{
	LevelBasic:     0,
	LevelSecret:    1,
	LevelTopSecret: 2,
	LevelCosmic:    3,
}

func (l ClearanceLevel) Valid() bool {
	_, ok := clearanceLevelRank[l]
	return ok
}

type RecordStatus string

const (
	StatusPending    RecordStatus = "pending"
	StatusInProgress RecordStatus = "in_progress"
	StatusApproved   RecordStatus = "approved"
	StatusRejected   RecordStatus = "rejected"
	StatusExpired    RecordStatus = "expired"
	StatusSuspended  RecordStatus = "suspended"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusApproved, StatusRejected, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

// Terminal reports whether no further stage decisions can move the record.
func (s RecordStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

type StageID string

const (
	StageInitialReview   StageID = "initial_review"
	StageInvestigation   StageID = "investigation"
	StageEvaluation      StageID = "evaluation"
	StageCommitteeReview StageID = "committee_review"
	StageFinalApproval   StageID = "final_approval"
)

// StageOrder is the fixed approval sequence. Every record carries all five
// stages in exactly this order.
var StageOrder = []StageID{
	StageInitialReview,
	StageInvestigation,
	StageEvaluation,
	StageCommitteeReview,
	StageFinalApproval,
}

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageApproved   StageStatus = "approved"
	StageRejected   StageStatus = "rejected"
)

func (s StageStatus) Valid() bool {
	switch s {
	case StagePending, StageInProgress, StageApproved, StageRejected:
		return true
	}
	return false
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type CheckOutcome string

const (
	CheckPending       CheckOutcome = "pending"
	CheckClear         CheckOutcome = "clear"
	CheckVerified      CheckOutcome = "verified"
	CheckPositive      CheckOutcome = "positive"
	CheckPassed        CheckOutcome = "passed"
	CheckIssuesFound   CheckOutcome = "issues_found"
	CheckDiscrepancies CheckOutcome = "discrepancies"
	CheckConcerns      CheckOutcome = "concerns"
	CheckFailed        CheckOutcome = "failed"
	CheckNotApplicable CheckOutcome = "not_applicable"
	CheckNotRequired   CheckOutcome = "not_required"
)

func (o CheckOutcome) Valid() bool {
	switch o {
	case CheckPending, CheckClear, CheckVerified, CheckPositive, CheckPassed,
		CheckIssuesFound, CheckDiscrepancies, CheckConcerns, CheckFailed,
		CheckNotApplicable, CheckNotRequired:
		return true
	}
	return false
}

// Adverse reports whether the outcome counts against the candidate.
func (o CheckOutcome) Adverse() bool {
	switch o {
	case CheckIssuesFound, CheckDiscrepancies, CheckConcerns, CheckFailed:
		return true
	}
	return false
}

// Waived reports whether the component does not apply to this record.
func (o CheckOutcome) Waived() bool {
	return o == CheckNotApplicable || o == CheckNotRequired
}

// Terminal reports whether the component has finished, waived included.
func (o CheckOutcome) Terminal() bool {
	return o.Valid() && o != CheckPending
}

type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentSubmitted DocumentStatus = "submitted"
	DocumentApproved  DocumentStatus = "approved"
	DocumentRejected  DocumentStatus = "rejected"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentSubmitted, DocumentApproved, DocumentRejected:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Valid reports whether the level is assignable to a risk factor. RiskNone
// only appears as an overall evaluation result, never on a factor.
func (l RiskLevel) Valid() bool {
	return l == RiskLow || l == RiskMedium || l == RiskHigh || l == RiskCritical
}

func (l RiskLevel) Outranks(other RiskLevel) bool {
	return riskRank[l] > riskRank[other]
}

type ReviewFrequency string

const (
	FrequencyAnnual       ReviewFrequency = "annual"
	FrequencyBiennial     ReviewFrequency = "biennial"
	FrequencyQuinquennial ReviewFrequency = "quinquennial"
)

var frequencyYears = map[ReviewFrequency]int{
	FrequencyAnnual:       1,
	FrequencyBiennial:     2,
	FrequencyQuinquennial: 5,
}

func (f ReviewFrequency) Valid() bool {
	_, ok := frequencyYears[f]
	return ok
}

type ReviewStatus string

const (
	ReviewCurrent ReviewStatus = "current"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)
