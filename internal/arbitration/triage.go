package arbitration

// Fixed category policy tables. Triage output built from these is advisory
// metadata on the dispute; the binding decision comes from the consensus engine.

var defaultPriority = map[Category]Priority{
	WrongResult:    PriorityHigh,
	NoShow:         PriorityMedium,
	Cheating:       PriorityUrgent,
	TechnicalIssue: PriorityMedium,
	RuleViolation:  PriorityHigh,
	Other:          PriorityMedium,
}

// DefaultPriority returns the category's baseline priority, medium for
// anything unrecognized so triage never fails a submission.
func DefaultPriority(c Category) Priority {
	if p, ok := defaultPriority[c]; ok {
		return p
	}
	return PriorityMedium
}

// UrgencyKeywords force a dispute to urgent when present in its description.
var UrgencyKeywords = []string{"cheat", "hack", "exploit", "fraud"}

var requiredEvidence = map[Category][]string{
	WrongResult:    {"match screenshot", "final scoreboard", "opponent confirmation"},
	NoShow:         {"lobby screenshot", "check-in timestamp"},
	Cheating:       {"gameplay recording", "suspect timestamps", "prior reports"},
	TechnicalIssue: {"error screenshot", "connection log"},
	RuleViolation:  {"rule reference", "supporting screenshot"},
	Other:          {"description of the issue"},
}

// RequiredEvidence returns the advisory evidence checklist for a category.
func RequiredEvidence(c Category) []string {
	if ev, ok := requiredEvidence[c]; ok {
		return ev
	}
	return requiredEvidence[Other]
}

var suggestedResolution = map[Category]string{
	WrongResult:    "Verify the submitted score against evidence and correct it if wrong",
	NoShow:         "Award a forfeit win unless both parties agree to reschedule",
	Cheating:       "Review gameplay evidence; disqualify if cheating is confirmed",
	TechnicalIssue: "Schedule a rematch if the issue affected the outcome",
	RuleViolation:  "Apply the penalty the violated rule specifies",
	Other:          "Review the report and decide case by case",
}

// SuggestedResolution returns the advisory resolution hint for a category.
func SuggestedResolution(c Category) string {
	if s, ok := suggestedResolution[c]; ok {
		return s
	}
	return suggestedResolution[Other]
}

var estimatedHours = map[Priority]int{
	PriorityUrgent: 2,
	PriorityHigh:   6,
	PriorityMedium: 24,
	PriorityLow:    48,
}

// EstimatedHours returns the advisory resolution-time estimate for a priority.
func EstimatedHours(p Priority) int {
	if h, ok := estimatedHours[p]; ok {
		return h
	}
	return estimatedHours[PriorityMedium]
}

// PanelSize returns how many arbiters a dispute of this priority needs.
func PanelSize(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 5
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}
