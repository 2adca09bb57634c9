package session

// Conversation-facing field names. Handlers only ever use these.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldContextState         = "context_state"
	FieldExistingPolicy       = "existing_policy"
	FieldEmploymentStatus     = "employment_status"
	FieldAnnualIncome         = "annual_income"
	FieldIncome               = "income"
	FieldPrimaryNeed          = "primary_need"
	FieldAge                  = "age"
	FieldBudget               = "budget"
	FieldPolicyTerm           = "policy_term"
	FieldCoverage             = "coverage"
	FieldDOB                  = "dob"
	FieldGender               = "gender"
	FieldNationality          = "nationality"
	FieldMaritalStatus        = "marital_status"
	FieldEducation            = "education"
	FieldGSTApplicable        = "gst_applicable"
	FieldPlanType             = "plan_type"
	FieldPremiumPaymentTerm   = "premium_payment_term"
	FieldPremiumFrequency     = "premium_frequency"
	FieldPayoutFrequency      = "payout_frequency"
	FieldShownRecommendations = "shown_recommendations"
	FieldRetrievedDocs        = "retrieved_docs"
	FieldSelectedPolicy       = "selected_policy"
	FieldStateBeforeDiversion = "state_before_diversion"
	FieldQuoteNumber          = "quote_number"
	FieldSumAssured           = "sum_assured"
	FieldBasePremium          = "base_premium"
	FieldGST                  = "gst"
	FieldTotalPremium         = "total_premium"
)

// columnAliases maps conversation-facing names to the storage column
// when they differ. Names not listed are stored under the same name.
var columnAliases = map[string]string{
	FieldPolicyTerm:       "term_length",
	FieldPlanType:         "plan_option",
	FieldPayoutFrequency:  "income_payout_frequency",
	FieldBudget:           "premium_budget",
	FieldCoverage:         "coverage_required",
	FieldGST:              "gst_amount",
	FieldPremiumFrequency: "premium_payment_frequency",
}

var fieldAliases = invert(columnAliases)

// identityFields live on the users table rather than user_contexts.
var identityFields = map[string]bool{
	FieldName:  true,
	FieldEmail: true,
}

// contextFields is the full set of writable conversation-facing names
// stored on user_contexts.
var contextFields = map[string]bool{
	FieldContextState: true, FieldExistingPolicy: true, FieldEmploymentStatus: true,
	FieldAnnualIncome: true, FieldIncome: true, FieldPrimaryNeed: true, FieldAge: true,
	FieldBudget: true, FieldPolicyTerm: true, FieldCoverage: true,
	FieldDOB: true, FieldGender: true, FieldNationality: true, FieldMaritalStatus: true,
	FieldEducation: true, FieldGSTApplicable: true, FieldPlanType: true,
	FieldPremiumPaymentTerm: true, FieldPremiumFrequency: true, FieldPayoutFrequency: true,
	FieldShownRecommendations: true, FieldRetrievedDocs: true, FieldSelectedPolicy: true,
	FieldStateBeforeDiversion: true, FieldQuoteNumber: true, FieldSumAssured: true,
	FieldBasePremium: true, FieldGST: true, FieldTotalPremium: true,
}

// ColumnFor returns the storage column for a conversation-facing field name.
func ColumnFor(field string) string {
	if col, ok := columnAliases[field]; ok {
		return col
	}
	return field
}

// FieldFor returns the conversation-facing name for a storage column.
func FieldFor(column string) string {
	if f, ok := fieldAliases[column]; ok {
		return f
	}
	return column
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
