package dialogue

// Phase is the persisted conversation state.
type Phase string

const (
	PhaseExistingPolicy      Phase = "collect_existing_policy"
	PhaseEmploymentStatus    Phase = "collect_employment_status"
	PhaseAnnualIncome        Phase = "collect_annual_income"
	PhasePrimaryNeed         Phase = "collect_primary_need"
	PhaseAge                 Phase = "collect_age"
	PhaseBudget              Phase = "collect_budget"
	PhaseTermLength          Phase = "collect_term_length"
	PhaseCoverage            Phase = "collect_coverage"
	PhaseRecommendation      Phase = "recommendation_phase"
	PhaseRecommendationGiven Phase = "recommendation_given_phase"
	PhaseQuotation           Phase = "generate_premium_quotation"
	PhaseQuoteDisplayed      Phase = "quote_displayed"
	PhaseApplication         Phase = "application"
	PhaseContactCapture      Phase = "contact_capture"
	PhaseEmailCapture        Phase = "email_capture"
	PhaseFollowUp            Phase = "follow_up"

	InitialPhase = PhaseExistingPolicy
)

var phaseOrder = []Phase{
	PhaseExistingPolicy,
	PhaseEmploymentStatus,
	PhaseAnnualIncome,
	PhasePrimaryNeed,
	PhaseAge,
	PhaseBudget,
	PhaseTermLength,
	PhaseCoverage,
	PhaseRecommendation,
	PhaseRecommendationGiven,
	PhaseQuotation,
	PhaseQuoteDisplayed,
	PhaseApplication,
	PhaseContactCapture,
	PhaseEmailCapture,
	PhaseFollowUp,
}

var phaseIndex = func() map[Phase]int {
	m := make(map[Phase]int, len(phaseOrder))
	for i, p := range phaseOrder {
		m[p] = i
	}
	return m
}()

// exceptionKeywords are in-flow words that must never be read as an aside
// in the given phase.
var exceptionKeywords = map[Phase][]string{
	PhaseRecommendationGiven: {"apply", "compare", "details", "different", "proceed"},
	PhaseQuoteDisplayed:      {"proceed", "buy", "recalculate", "apply"},
}

// ParsePhase maps a stored state name to a Phase. Unknown or empty names
// restart at the initial phase.
func ParsePhase(s string) Phase {
	p := Phase(s)
	if _, ok := phaseIndex[p]; ok {
		return p
	}
	return InitialPhase
}

func (p Phase) IsTerminal() bool { return p == PhaseFollowUp }

// ClosingStarted reports whether the application phase has begun.
func (p Phase) ClosingStarted() bool {
	return phaseIndex[p] >= phaseIndex[PhaseApplication]
}

func (p Phase) usesForm() bool { return p == PhaseQuotation }

func (p Phase) exceptions() []string { return exceptionKeywords[p] }
